// Package events provides the typed publish/subscribe bus the form application
// uses to announce lifecycle phases. Delivery is synchronous: Emit returns once
// every matching handler has run.
package events
