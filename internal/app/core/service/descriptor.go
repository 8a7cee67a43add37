package service

// Layer describes where a service sits in the request path.
type Layer string

const (
	// LayerCore services own domain state and rules.
	LayerCore Layer = "core"
	// LayerEdge services shape traffic before it reaches the core.
	LayerEdge Layer = "edge"
)

// Descriptor advertises a service's placement and capabilities. It does not
// change runtime behavior; the HTTP API lists descriptors for operators.
type Descriptor struct {
	Name         string   `json:"name"`
	Domain       string   `json:"domain"`
	Layer        Layer    `json:"layer"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// WithCapabilities returns a copy of the descriptor with additional
// capabilities appended.
func (d Descriptor) WithCapabilities(caps ...string) Descriptor {
	if len(caps) == 0 {
		return d
	}
	combined := make([]string, 0, len(d.Capabilities)+len(caps))
	combined = append(combined, d.Capabilities...)
	combined = append(combined, caps...)
	d.Capabilities = combined
	return d
}
