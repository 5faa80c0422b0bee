package cortex

import (
	"math"
	"sort"
)

// Input conversion for spiking networks. Direct receptive fields treat
// each input value as a spike time. Gaussian receptive fields spread
// each input variable over a bank of receptors with overlapping tuning
// curves: strong responses spike early, weak responses below the
// cutoff stay silent. Rank-order encoding keeps only the order of the
// resulting spikes, not their exact times.

// grfResponse is receptor r's response to x out of n receptors tuned
// across [0, 1].
func grfResponse(x float64, r, n int) float64 {
	center := (float64(r) + 0.5) / float64(n)
	width := 1.0 / float64(n)
	d := (x - center) / width
	return math.Exp(-0.5 * d * d)
}

// convert presents a sample to the input layer as spike events.
func (n *Network) convert(sample []float64) {
	conf := n.ctx.Conf
	input := n.Layers[0]

	type spike struct {
		node *Node
		time float64
	}
	var spikes []spike

	switch conf.Net.RF.Type {
	case GaussianRF:
		receptors := conf.Net.RF.GRF.Nodes
		if receptors <= 0 {
			receptors = 1
		}
		for v, x := range sample {
			for r := 0; r < receptors; r++ {
				idx := v*receptors + r
				if idx >= len(input.Nodes) {
					break
				}
				resp := grfResponse(x, r, receptors)
				if resp < conf.Net.RF.GRF.Cutoff {
					continue
				}
				spikes = append(spikes, spike{input.Nodes[idx], (1.0 - resp) * conf.Net.Spike.Max.Delay})
			}
		}
	default:
		for i, x := range sample {
			if i >= len(input.Nodes) {
				break
			}
			spikes = append(spikes, spike{input.Nodes[i], x})
		}
	}

	if conf.Net.Spike.Enc == RankOrderEnc {
		// Only the order of arrival carries information: replace the
		// spike times with their ranks.
		sort.SliceStable(spikes, func(i, j int) bool { return spikes[i].time < spikes[j].time })
		for i := range spikes {
			spikes[i].time = float64(i + 1)
		}
	}

	for _, sp := range spikes {
		sp.node.schedule(sp.time, n)
	}
}
