// Package jobs keeps the in-memory record of archive jobs started from the
// web layer, so a repeated request for the same session and date range gets
// the running job instead of a second download.
package jobs
