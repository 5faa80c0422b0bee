package cortex

// Shared helpers for the package tests.

// testConf builds a validated configuration with the given layer sizes;
// the first and last layers are fixed, as for a real experiment.
func testConf(layers ...int) *Conf {
	c := &Conf{}
	c.Defaults()
	c.Net.Init.Layers = nil
	for i, n := range layers {
		defs := make([]NodeDef, n)
		for j := range defs {
			defs[j] = NodeDef{Dim: [3]int{1, 1, 1}}
		}
		c.Net.Init.Layers = append(c.Net.Init.Layers, LayerDef{
			Type:  RegularLayer,
			Nodes: defs,
			Fixed: i == 0 || i == len(layers)-1,
		})
	}
	return c
}

// testNet realises the configured shape directly.
func testNet(c *Conf) *Network {
	return NewNetwork(NewContext(c), NewGenome(c))
}

// isDAG walks the forward subgraph from every node and reports
// whether it is acyclic.
func isDAG(net *Network) bool {
	return net.refreshOrder() == nil
}
