// Package govtravel provides the government travel directive sources.
//
// # Sources
//
// ## International (NJC Appendix D)
//
// Source: "international"
// URL: https://www.njc-cnm.gc.ca/directive/app_d.php?lang=en
//
// Per-diem allowances per country and city. The country and the local
// currency are only stated in the table heading:
//
//	Albania - Currency: Euro (EUR)
//
// The directive splits the countries over one page per letter. The letter
// pages are discovered from the base page navigation links, and fetched A-Z.
//
// ## Domestic (NJC Appendix C)
//
// Source: "domestic"
// URL: https://www.njc-cnm.gc.ca/directive/d10/v325/s978/en
//
// Meal and incidental allowances for Canada and the USA, in CAD
// unless stated otherwise.
//
// ## Accommodations (PWGSC)
//
// Source: "accommodations"
// URL: https://rehelv-acrd.tpsgc-pwgsc.gc.ca/lth-crl-eng.aspx
//
// Accommodation directory with nightly rates, in CAD unless stated otherwise.
//
// # Fetching
//
// Pages are fetched one at a time. Successive fetches are spaced out by the
// configured pause. Timeouts, connection errors and 429/500/502/503/504
// statuses are retried with a linear backoff (n * step). Any other error
// status fails the source.
package govtravel
