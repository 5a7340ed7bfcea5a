// Package lib holds the integrations that sit beside the layered code: the
// remote province source, token signing, email delivery and background jobs.
package lib
