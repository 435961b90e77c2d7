// Package expr implements the styling expression language: a typed tree of
// nodes evaluated per feature on the CPU and compiled to WGSL for the GPU.
//
// Expressions are built from constructors (Prop, Linear, Ramp, Top, Blend,
// ...) whose literal arguments go through Coerce. A tree is bound to the
// dataset metadata before it is evaluated or emitted:
//
//	price := expr.Prop("price")
//	color, err := expr.Ramp(price, palette.Sunset)
//	if err != nil {
//	    return err
//	}
//	if err := color.Bind(md); err != nil {
//	    return err // *TypeError naming the operator and argument
//	}
//	v, err := color.Eval(expr.Feature{"price": 12.5})
//
// Animated replacements go through a Tree, an arena addressing nodes by
// Handle, so a subtree can be swapped for a blend without rewiring
// pointers held elsewhere.
package expr
