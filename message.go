package engine

// message is the envelope moved through the cross-thread channels. A
// pushed message transfers ownership of the plan to the receiving side.
type message struct {
	plan *RenderPlan
}
