package canvas

// TextBlock is the opaque, pre-shaping text description the canvas
// forwards to Text. Font shaping and layout are the responsibility of an
// external collaborator (spec §4.7: "Font atlas binning (out of scope
// here) is provided as an external collaborator"); the canvas package
// never inspects its contents.
type TextBlock struct {
	Text string
}

// ShapedGlyph is one already-shaped, already-atlas-bound glyph quad: its
// offset from the Text call's desc.Center and its extent (both in the same
// units as ShapeDesc.Center/Extent), and the SDF atlas bin it samples.
type ShapedGlyph struct {
	Offset Vec2
	Extent Vec2
	UV0    Vec2
	UV1    Vec2
}

// TextLayout is the pre-shaped glyph run the canvas consumes directly
// (spec §4.7: "Canvas consumes a pre-shaped TextLayout + TextBlock +
// TextBlockStyle").
type TextLayout struct {
	Glyphs  []ShapedGlyph
	Texture uint32
}

// TextBlockStyle carries the run-level tint and scissor every glyph quad
// in a Text call inherits.
type TextBlockStyle struct {
	Tint    Vec4
	Scissor Rect
}
