// Package model defines the JSON form document and the encounter records
// captured against it. A FormModel carries the form's descriptors, its opaque
// page definitions, and a nested "global" configuration tree keyed by category
// and variable. Defaults for that tree are merged deeply on construction so
// callers only need to supply the leaves they want to change. Global setters
// announce changes on the model's event bus at three levels of specificity
// (`changeglobal`, `changeglobal:<category>`, `changeglobal:<category>:<variable>`).
package model
