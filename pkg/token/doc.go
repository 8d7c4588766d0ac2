// Package token keeps an Instagram Graph API long-lived access token alive.
//
// A Refresher performs the single refresh request and never fails its caller:
// problems are logged and reported as ok == false. A Scheduler runs the
// refresher on a cron schedule and writes every new token back to the
// credential store.
package token
