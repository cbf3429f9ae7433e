// Package api holds the Toolshop API acceptance suites.
//
// The suites run against an in-process fake auth server by default. Set TOOLSHOP_API_URL
// (for example https://api.practicesoftwaretesting.com) to run them against a live
// deployment instead; ADMIN_EMAIL and ADMIN_PASSWORD override the fixture account.
package api
