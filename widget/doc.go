// Package widget defines filter widget kinds and resolves them for columns.
//
// A Kind renders a widget Spec from a column's contents and evaluates
// widget States against cell values. Kinds live in a Registry under a name;
// each column kind (categorical, numeric, datetime, geometry) has a default.
//
// Built-in kinds:
//
//	select      multi-select over distinct values    categorical, numeric, datetime
//	checkbox    checkbox group over distinct values  categorical, numeric
//	range       inclusive numeric interval           numeric
//	slider      numeric interval with a step         numeric
//	date_range  inclusive time period                datetime
//	bounds      bounding box intersection            geometry
//
// Per-column Overrides disable a column, replace its kind, or relabel it:
//
//	reg := widget.NewRegistry()
//	spec, err := reg.Resolve(col, widget.Replace(widget.CategoricalCheckbox{}).WithLabel("Party"), data)
package widget
