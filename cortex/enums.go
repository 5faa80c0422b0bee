package cortex

import "fmt"

// NetType selects the network family.
type NetType int

const (
	ClassicalNet NetType = iota
	SpikingNet
	ConvolutionalNet
)

var netTypeNames = map[string]NetType{
	"classical":     ClassicalNet,
	"spiking":       SpikingNet,
	"convolutional": ConvolutionalNet,
}

func (nt NetType) String() string { return enumName(netTypeNames, nt) }

// LayerType determines how a layer is evaluated.
type LayerType int

const (
	RegularLayer LayerType = iota
	ConvolutionalLayer
)

var layerTypeNames = map[string]LayerType{
	"regular":       RegularLayer,
	"convolutional": ConvolutionalLayer,
}

func (lt LayerType) String() string { return enumName(layerTypeNames, lt) }

// LinkType classifies a directed connection between two nodes.
// The type determines which (source layer, target layer) pairs are legal;
// see Node.allowLink.
type LinkType int

const (
	ForwardLink LinkType = iota
	RecurrentLink
	LateralLink
	SkipLink
)

var linkTypeNames = map[string]LinkType{
	"forward":   ForwardLink,
	"recurrent": RecurrentLink,
	"lateral":   LateralLink,
	"skip":      SkipLink,
}

func (lt LinkType) String() string { return enumName(linkTypeNames, lt) }

// NodeRole tags a node with its function in the network.
// Role constraints drive connectivity: bias and input nodes never receive
// forward links, and output nodes never send them.
type NodeRole int

const (
	BiasNode NodeRole = iota
	InputNode
	OutputNode
	HiddenNode
)

var nodeRoleNames = map[string]NodeRole{
	"bias":   BiasNode,
	"input":  InputNode,
	"output": OutputNode,
	"hidden": HiddenNode,
}

func (nr NodeRole) String() string { return enumName(nodeRoleNames, nr) }

// Dist selects the distribution a Parameter's initial value is drawn from.
type Dist int

const (
	FixedDist Dist = iota
	UniformDist
	NormalDist
	PosNormalDist
	NegNormalDist
)

var distNames = map[string]Dist{
	"fixed":      FixedDist,
	"uniform":    UniformDist,
	"normal":     NormalDist,
	"pos_normal": PosNormalDist,
	"neg_normal": NegNormalDist,
}

func (d Dist) String() string { return enumName(distNames, d) }

// MAType selects the moving-average mode of a statistics bundle.
type MAType int

const (
	SimpleMA MAType = iota
	ExponentialMA
)

// LearningMode selects how parameters are optimised between evaluations.
type LearningMode int

const (
	MutationLearning LearningMode = iota
	STDPLearning
)

var learningModeNames = map[string]LearningMode{
	"mutation": MutationLearning,
	"stdp":     STDPLearning,
}

func (lm LearningMode) String() string { return enumName(learningModeNames, lm) }

// SpikeEnc selects the spike-coding scheme for spiking networks.
type SpikeEnc int

const (
	TimeEnc SpikeEnc = iota
	RankOrderEnc
)

var spikeEncNames = map[string]SpikeEnc{
	"time":       TimeEnc,
	"rank_order": RankOrderEnc,
}

func (se SpikeEnc) String() string { return enumName(spikeEncNames, se) }

// RFType selects how input samples are converted into spikes.
type RFType int

const (
	DirectRF RFType = iota
	GaussianRF
)

var rfTypeNames = map[string]RFType{
	"direct":   DirectRF,
	"gaussian": GaussianRF,
}

func (rt RFType) String() string { return enumName(rfTypeNames, rt) }

// TaskType is the task family of the experiment.
type TaskType int

const (
	ClassificationTask TaskType = iota
	RegressionTask
	PredictionTask
	ControlTask
)

var taskTypeNames = map[string]TaskType{
	"classification": ClassificationTask,
	"regression":     RegressionTask,
	"prediction":     PredictionTask,
	"control":        ControlTask,
}

func (tt TaskType) String() string { return enumName(taskTypeNames, tt) }

// DataType is the shape of the input samples.
type DataType int

const (
	RealValuedData DataType = iota
	TimeSeriesData
	ImageData
)

var dataTypeNames = map[string]DataType{
	"real-valued": RealValuedData,
	"time-series": TimeSeriesData,
	"image":       ImageData,
}

func (dt DataType) String() string { return enumName(dataTypeNames, dt) }

// Action is the direction of the last parameter perturbation.
type Action int

const (
	ActionUndef Action = iota
	ActionInc
	ActionDec
)

// Effect is the observed effect of the last mutation on fitness.
type Effect int

const (
	EffectUndef Effect = iota
	EffectInc
	EffectDec
)

// Stage is the three-position ratchet gating "solved" detection.
type Stage int

const (
	TrainStage Stage = iota
	DevStage
	TestStage
)

var stageNames = map[string]Stage{
	"train": TrainStage,
	"dev":   DevStage,
	"test":  TestStage,
}

func (s Stage) String() string { return enumName(stageNames, s) }

// MutOp is a structural mutation operator.
type MutOp int

const (
	AddNodeOp MutOp = iota
	EraseNodeOp
	AddLinkOp
	EraseLinkOp
	WeightOp
	TauOp
	TransferOp
)

var mutOpNames = map[string]MutOp{
	"add_node":   AddNodeOp,
	"erase_node": EraseNodeOp,
	"add_link":   AddLinkOp,
	"erase_link": EraseLinkOp,
	"weight":     WeightOp,
	"tau":        TauOp,
	"transfer":   TransferOp,
}

func (op MutOp) String() string { return enumName(mutOpNames, op) }

// HStat tags a history record.
type HStat int

const (
	SuccessRate HStat = iota
	Epochs
	Evaluations
	SpeciesCount
	NetCount
	LayerCount
	NodeCount
	LinkCount
)

var hStatNames = map[string]HStat{
	"SuccessRate": SuccessRate,
	"Epochs":      Epochs,
	"Evaluations": Evaluations,
	"Species":     SpeciesCount,
	"Nets":        NetCount,
	"Layers":      LayerCount,
	"Nodes":       NodeCount,
	"Links":       LinkCount,
}

// HStats lists all history tags in recording order.
var HStats = []HStat{SuccessRate, Epochs, Evaluations, SpeciesCount, NetCount, LayerCount, NodeCount, LinkCount}

func (hs HStat) String() string { return enumName(hStatNames, hs) }

// enumName returns the registered name of an enum value, used by the
// String methods above and when saving configurations.
func enumName[E comparable](names map[string]E, val E) string {
	for name, v := range names {
		if v == val {
			return name
		}
	}
	return fmt.Sprintf("unknown(%v)", any(val))
}

// parseEnum resolves a configuration string to its enum value.
func parseEnum[E comparable](names map[string]E, s, what string) (E, error) {
	if v, ok := names[s]; ok {
		return v, nil
	}
	var zero E
	return zero, fmt.Errorf("invalid %s %q", what, s)
}
