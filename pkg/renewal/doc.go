/*
Package renewal coordinates access token renewal for one process.

Any number of goroutines may discover at the same moment that their access
token was rejected. The Coordinator makes sure exactly one renewal call is in
flight: the first caller moves the coordinator from Idle to Renewing and
starts the call, later callers queue behind it and are released, in the order
they arrived, with the outcome of that single call.

	Idle ──Renew()──▶ Renewing ──ok──▶ Idle
	                      │
	                      └──err/timeout──▶ Failed ──▶ Idle

On success the new pair is written to the token store before anyone is
released. On failure the store is cleared and every waiter receives an error
wrapping ErrRenewalFailed. The call itself runs detached from the caller that
started it and is bounded by a timeout; a waiter whose own context ends may
leave the queue early without affecting the others.
*/
package renewal
