// Package app drives the form application lifecycle. It waits for the device
// and the loading page to report ready, runs the initialisation phases,
// loads the encounter and the form document, then walks the page, view and
// observation services through building the form until the first page is
// entered.
//
// Every phase is announced on the application bus by a start event and a
// matching Complete event. Phases run synchronously on the goroutine that
// delivered the last readiness signal.
package app
