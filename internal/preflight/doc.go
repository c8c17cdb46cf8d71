// Package preflight provides readiness checks for the filesystem paths,
// credentials, and database the finder depends on.
//
// The CLI "finder preflight" command runs RunAll; "finder scan" runs it too
// and refuses to start when a required check fails, so a misconfigured host
// does not burn source quota on a run that cannot persist anything.
package preflight
