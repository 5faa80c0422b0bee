package cortex

// Crossover produces an offspring network by interleaving chromosomes
// (layers) and genes (nodes) from two parents, selecting by
// fitness-weighted coin per pair.
//
// A reference DNA is built first by zipping the parents' layer
// sequences while their types match. When the types diverge, a
// fitness-weighted coin picks a parent and its run of matching-type
// layers is taken until the sequences realign. When one parent reaches
// its output layer first, the other's remaining hidden layers are
// appended behind the same coin. Node selection within each aligned
// layer pair weighs each candidate by its parent's relative fitness and
// its own age. Link topology follows the parent each node came from
// wherever the reference links have counterparts in the offspring.
func Crossover(ctx *Context, p1, p2 *Network) *Network {
	parentWheel := func() *Network {
		wheel := Wheel[*Network]{}
		wheel.Add(p1, p1.Fitness.Rel.Value)
		wheel.Add(p2, p2.Fitness.Rel.Value)
		return wheel.Spin()
	}

	n1 := len(p1.Layers)
	n2 := len(p2.Layers)

	// Reference genotypes. Both end up with the same length even when
	// the parents differ, which keeps node selection aligned.
	var geno1, geno2 []*Layer
	i1, i2 := 0, 0
	for i1 < n1 && i2 < n2 {
		geno1 = append(geno1, p1.Layers[i1])
		geno2 = append(geno2, p2.Layers[i2])
		i1++
		i2++

		// Realign on layer-type divergence: take one parent's run of
		// layers matching the last stored type.
		if i1 < n1 && i2 < n2 && p1.Layers[i1].Def.Type != p2.Layers[i2].Def.Type {
			lastType := geno1[len(geno1)-1].Def.Type
			if parentWheel() == p1 {
				for i1 < n1-1 && p1.Layers[i1].Def.Type == lastType {
					geno1 = append(geno1, p1.Layers[i1])
					geno2 = append(geno2, p1.Layers[i1])
					i1++
				}
			} else {
				for i2 < n2-1 && p2.Layers[i2].Def.Type == lastType {
					geno1 = append(geno1, p2.Layers[i2])
					geno2 = append(geno2, p2.Layers[i2])
					i2++
				}
			}
		}

		// One parent at its output layer but not the other: optionally
		// append the other's remaining hidden layers.
		if i1 == n1-1 && i2 < n2-1 {
			if parentWheel() == p2 {
				for i2 < n2-1 {
					geno1 = append(geno1, p2.Layers[i2])
					geno2 = append(geno2, p2.Layers[i2])
					i2++
				}
			} else {
				i2 = n2 - 1
			}
		} else if i2 == n2-1 && i1 < n1-1 {
			if parentWheel() == p1 {
				for i1 < n1-1 {
					geno1 = append(geno1, p1.Layers[i1])
					geno2 = append(geno2, p1.Layers[i1])
					i1++
				}
			} else {
				i1 = n1 - 1
			}
		}
	}

	child := &Network{
		ctx:     ctx,
		Fitness: NewFitness(ctx.Conf.Fitness.Stat.Alpha),
	}

	// Select the layer definitions and the reference nodes.
	genotype := make([][]*Node, 0, len(geno1))
	for l := range geno1 {
		chosen := geno1[l]
		if parentWheel() == p2 {
			chosen = geno2[l]
		}
		child.Layers = append(child.Layers, NewLayer(child, chosen.Def))

		refs := make([]*Node, 0, len(chosen.Def.Nodes))
		nodes1 := geno1[l].Nodes
		nodes2 := geno2[l].Nodes
		j := 0
		for j < len(nodes1) && j < len(nodes2) && len(refs) < len(chosen.Def.Nodes) {
			wheel := Wheel[*Node]{}
			wheel.Add(nodes1[j], p1.Fitness.Rel.Value*float64(nodes1[j].Age+1))
			wheel.Add(nodes2[j], p2.Fitness.Rel.Value*float64(nodes2[j].Age+1))
			refs = append(refs, wheel.Spin())
			j++
		}
		// The chosen definition may call for more nodes than the
		// shorter reference layer holds: take the rest from the longer.
		rest := nodes1
		if len(nodes2) > len(nodes1) {
			rest = nodes2
		}
		for ; j < len(rest) && len(refs) < len(chosen.Def.Nodes); j++ {
			refs = append(refs, rest[j])
		}
		genotype = append(genotype, refs)
	}

	// Populate, then connect via the reference DNA so link topology
	// matches the parent each node came from where possible.
	for l, layer := range child.Layers {
		layer.Init(genotype[l])
	}
	for l, layer := range child.Layers {
		layer.Connect(genotype[l])
	}
	child.ensureConnected()
	child.refreshOrder()
	return child
}
