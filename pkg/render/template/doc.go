// Package template defines the template rendering contract page services use
// to turn page definitions into markup. The go-template implementation lives
// in the gotemplate subpackage.
package template
