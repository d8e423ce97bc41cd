// Package exclusions implements the excluded-modules list service.
//
// This is the single source of truth for which modules the periodic
// update check should skip. Names flow in from the admin selection form
// and flow out through the removal endpoint; the update-check report
// consults the list before presenting results to operators.
//
// The service layer contains pure business logic and depends on the
// Store interface defined in store.go. It never imports net/http or
// database/sql directly.
package exclusions
