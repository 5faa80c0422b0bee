package cortex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// errf is shorthand for fmt.Errorf, used by the validation checks.
var errf = fmt.Errorf

// Conf stores the configuration for a task. The primary document
// format is JSON with hierarchical, dot-addressable keys; an INI
// flavour is accepted for flat experiments. The configuration is
// immutable for the duration of a run once Validate has passed.
type Conf struct {
	Net      NetConf      `json:"net"`
	Node     NodeConf     `json:"node"`
	Link     LinkConf     `json:"link"`
	Species  SpeciesConf  `json:"species"`
	Mutation MutationConf `json:"mutation"`
	Learning LearningConf `json:"learning"`
	Fitness  FitConf      `json:"fitness"`
	Task     TaskConf     `json:"task"`
	Data     DataConf     `json:"data"`
}

// NetConf holds the network family and population parameters.
type NetConf struct {
	Type  NetType     `json:"type"`
	Init  NetInitConf `json:"init"`
	Max   NetMaxConf  `json:"max"`
	Spike SpikeConf   `json:"spike"`
	RF    RFConf      `json:"rf"`
}

// NetInitConf describes the initial population.
type NetInitConf struct {
	Count  int        `json:"count" ini:"count"`
	Layers []LayerDef `json:"layers" ini:"-"`
}

// NetMaxConf caps the population size and the network age.
type NetMaxConf struct {
	Count int `json:"count" ini:"count"`
	// Age is the forced retirement age in generations; 0 disables it.
	Age int `json:"age" ini:"age"`
}

// SpikeConf controls spiking networks.
type SpikeConf struct {
	// LIF decays the membrane between inputs.
	LIF bool         `json:"lif" ini:"lif"`
	Enc SpikeEnc     `json:"enc" ini:"-"`
	Max SpikeMaxConf `json:"max"`
}

// SpikeMaxConf bounds the random firing delay.
type SpikeMaxConf struct {
	Delay float64 `json:"delay" ini:"delay"`
}

// RFConf selects the receptive field converting samples into spikes.
type RFConf struct {
	Type RFType  `json:"type"`
	GRF  GRFConf `json:"grf"`
}

// GRFConf parameterises the Gaussian receptive field.
type GRFConf struct {
	// Nodes is the number of receptors per input variable.
	Nodes int `json:"nodes" ini:"nodes"`
	// Cutoff suppresses receptor responses below this level.
	Cutoff float64 `json:"cutoff" ini:"cutoff"`
}

// NodeConf holds per-node parameter definitions.
type NodeConf struct {
	// Tau is the membrane time constant definition (spiking nets).
	Tau ParamDef `json:"tau"`
}

// LinkConf holds the allowed link kinds and the weight definition.
type LinkConf struct {
	Types  []LinkType `json:"types"`
	Weight ParamDef   `json:"weight"`
}

// SpeciesConf controls speciation.
type SpeciesConf struct {
	Enabled bool            `json:"enabled" ini:"enabled"`
	Init    SpeciesInitConf `json:"init" ini:"-"`
	Max     SpeciesMaxConf  `json:"max" ini:"-"`
}

// SpeciesInitConf sets the initial species count.
type SpeciesInitConf struct {
	Count int `json:"count" ini:"count"`
}

// SpeciesMaxConf caps the number of live species; 0 disables the cap.
type SpeciesMaxConf struct {
	Count int `json:"count" ini:"count"`
}

// MutationConf holds the structural mutation operator weights, keyed
// by operator name, and the adaptive flag scaling node operators by
// the network's saturation.
type MutationConf struct {
	Prob     map[string]float64 `json:"prob" ini:"-"`
	Adaptive bool               `json:"adaptive" ini:"adaptive"`
}

// LearningConf selects the parameter optimisation method.
type LearningConf struct {
	Mode     LearningMode `json:"mode" ini:"-"`
	Mutation LearnMutConf `json:"mutation" ini:"-"`
	STDP     STDPConf     `json:"stdp" ini:"-"`
}

// LearnMutConf scales the perturbation SD annealing.
type LearnMutConf struct {
	Scale float64 `json:"scale" ini:"scale"`
}

// STDPConf parameterises spike-timing-dependent plasticity.
type STDPConf struct {
	Rate    float64 `json:"rate" ini:"rate"`
	DpRatio float64 `json:"dp_ratio" ini:"dp_ratio"`
}

// FitConf holds the fitness statistics and the target.
type FitConf struct {
	Stat   FitStatConf `json:"stat" ini:"-"`
	Target float64     `json:"target" ini:"target"`
}

// FitStatConf sets the EMA forgetting factor of fitness statistics.
type FitStatConf struct {
	Alpha float64 `json:"alpha" ini:"alpha"`
}

// TaskConf drives the task runner.
type TaskConf struct {
	Type    TaskType `json:"type" ini:"-"`
	Runs    int      `json:"runs" ini:"runs"`
	Epochs  int      `json:"epochs" ini:"epochs"`
	Threads int      `json:"threads" ini:"threads"`
	Verbose bool     `json:"verbose" ini:"verbose"`
	// Champion, when set, is the path the champion network is dumped
	// to as JSON at the end of each run.
	Champion string `json:"champion" ini:"champion"`
	// History, when set, is the path the run history is dumped to
	// (.csv or .json by extension).
	History string `json:"history" ini:"history"`
}

// DataConf describes the input samples.
type DataConf struct {
	Type    DataType           `json:"type" ini:"-"`
	Samples int                `json:"samples" ini:"samples"`
	Sets    map[string]float64 `json:"sets" ini:"-"`
	Image   ImageConf          `json:"image" ini:"-"`
}

// ImageConf describes image-shaped samples.
type ImageConf struct {
	// Dim is the (depth, height, width) of the input images.
	Dim [3]int `json:"dim"`
}

// ConvLayerLimit bounds the number of convolutional layers a genome
// may hold: each convolutional stage pools its response, so the
// smaller spatial dimension can only be halved so many times before
// the response degenerates. Zero when no image geometry is configured,
// which keeps convolutional growth off entirely.
func (ic *ImageConf) ConvLayerLimit() int {
	side := ic.Dim[1]
	if ic.Dim[2] < side {
		side = ic.Dim[2]
	}
	limit := 0
	for side > 1 {
		side /= 2
		limit++
	}
	return limit
}

// --- Defaults ---

// Defaults populates a configuration with working default values: a
// minimal classical network on a two-layer shape.
func (c *Conf) Defaults() {
	c.Net.Defaults()
	c.Node.Defaults()
	c.Link.Defaults()
	c.Species.Defaults()
	c.Mutation.Defaults()
	c.Learning.Defaults()
	c.Fitness.Defaults()
	c.Task.Defaults()
	c.Data.Defaults()
}

func (nc *NetConf) Defaults() {
	nc.Type = ClassicalNet
	nc.Init.Count = 50
	nc.Init.Layers = []LayerDef{
		{Type: RegularLayer, Nodes: []NodeDef{{Dim: [3]int{1, 1, 1}}}, Fixed: true},
		{Type: RegularLayer, Nodes: []NodeDef{{Dim: [3]int{1, 1, 1}}}, Fixed: true},
	}
	nc.Max.Count = 200
	nc.Max.Age = 50
	nc.Spike.LIF = true
	nc.Spike.Enc = TimeEnc
	nc.Spike.Max.Delay = 1.0
	nc.RF.Type = DirectRF
	nc.RF.GRF.Nodes = 10
	nc.RF.GRF.Cutoff = 0.9
}

func (nc *NodeConf) Defaults() {
	nc.Tau = ParamDef{Dist: PosNormalDist, Mean: 5.0, SD: 1.0, Min: 0.1, Max: 20.0}
}

func (lc *LinkConf) Defaults() {
	lc.Types = []LinkType{ForwardLink}
	lc.Weight = ParamDef{Dist: NormalDist, Mean: 0.0, SD: 1.0, Min: -1.0, Max: 1.0}
}

func (sc *SpeciesConf) Defaults() {
	sc.Enabled = true
	sc.Init.Count = 4
	sc.Max.Count = 20
}

func (mc *MutationConf) Defaults() {
	mc.Prob = map[string]float64{
		"weight":     0.40,
		"tau":        0.10,
		"transfer":   0.10,
		"add_link":   0.15,
		"erase_link": 0.05,
		"add_node":   0.15,
		"erase_node": 0.05,
	}
	mc.Adaptive = true
}

func (lc *LearningConf) Defaults() {
	lc.Mode = MutationLearning
	lc.Mutation.Scale = 0.05
	lc.STDP.Rate = 0.005
	lc.STDP.DpRatio = 1.05
}

func (fc *FitConf) Defaults() {
	fc.Stat.Alpha = 0.25
	fc.Target = 1.0
}

func (tc *TaskConf) Defaults() {
	tc.Type = ClassificationTask
	tc.Runs = 1
	tc.Epochs = 100
	tc.Threads = 4
}

func (dc *DataConf) Defaults() {
	dc.Type = RealValuedData
	dc.Samples = 0
	dc.Sets = map[string]float64{"train": 0.8, "dev": 0.1, "test": 0.1}
}

// --- Loading ---

// LoadConf loads a configuration document, dispatching on the file
// extension: .json for the primary format, .ini or .cfg for the INI
// flavour. Unset options keep their defaults; the merged document is
// validated en masse.
func LoadConf(path string) (*Conf, error) {
	conf := &Conf{}
	conf.Defaults()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg":
		if err := conf.loadINI(path); err != nil {
			return nil, err
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file '%s': %w", path, err)
		}
		if err := json.Unmarshal(data, conf); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// loadINI merges an INI document into the configuration. Hierarchical
// options map to dotted section names ([net.spike.max]); the layer
// list, being structured, is given as a JSON array in the layers key
// of [net.init].
func (c *Conf) loadINI(path string) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", path, err)
	}

	sections := map[string]any{
		"net.init":      &c.Net.Init,
		"net.max":       &c.Net.Max,
		"net.spike":     &c.Net.Spike,
		"net.spike.max": &c.Net.Spike.Max,
		"net.rf.grf":    &c.Net.RF.GRF,
		"node.tau":      &c.Node.Tau,
		"link.weight":   &c.Link.Weight,
		"species":       &c.Species,
		"species.init":  &c.Species.Init,
		"species.max":   &c.Species.Max,
		"mutation":      &c.Mutation,
		"learning.mutation": &c.Learning.Mutation,
		"learning.stdp": &c.Learning.STDP,
		"fitness":       &c.Fitness,
		"fitness.stat":  &c.Fitness.Stat,
		"task":          &c.Task,
		"data":          &c.Data,
	}
	for name, target := range sections {
		if !cfg.HasSection(name) {
			continue
		}
		if err := cfg.Section(name).MapTo(target); err != nil {
			return fmt.Errorf("failed to map [%s] section: %w", name, err)
		}
	}

	// Enum-valued and structured options need explicit parsing.
	var errs []error
	readEnum := func(section, key, what string, set func(string) error) {
		if !cfg.HasSection(section) {
			return
		}
		if k, err := cfg.Section(section).GetKey(key); err == nil {
			if err := set(strings.TrimSpace(k.String())); err != nil {
				errs = append(errs, err)
			}
		}
	}
	readEnum("net", "type", "net.type", func(s string) (err error) {
		c.Net.Type, err = parseEnum(netTypeNames, s, "net.type")
		return err
	})
	readEnum("net.spike", "enc", "net.spike.enc", func(s string) (err error) {
		c.Net.Spike.Enc, err = parseEnum(spikeEncNames, s, "net.spike.enc")
		return err
	})
	readEnum("net.rf", "type", "net.rf.type", func(s string) (err error) {
		c.Net.RF.Type, err = parseEnum(rfTypeNames, s, "net.rf.type")
		return err
	})
	readEnum("learning", "mode", "learning.mode", func(s string) (err error) {
		c.Learning.Mode, err = parseEnum(learningModeNames, s, "learning.mode")
		return err
	})
	readEnum("task", "type", "task.type", func(s string) (err error) {
		c.Task.Type, err = parseEnum(taskTypeNames, s, "task.type")
		return err
	})
	readEnum("data", "type", "data.type", func(s string) (err error) {
		c.Data.Type, err = parseEnum(dataTypeNames, s, "data.type")
		return err
	})
	readEnum("node.tau", "dist", "node.tau.dist", func(s string) (err error) {
		c.Node.Tau.Dist, err = parseEnum(distNames, s, "node.tau.dist")
		return err
	})
	readEnum("link.weight", "dist", "link.weight.dist", func(s string) (err error) {
		c.Link.Weight.Dist, err = parseEnum(distNames, s, "link.weight.dist")
		return err
	})
	if cfg.HasSection("link") {
		if k, err := cfg.Section("link").GetKey("types"); err == nil {
			c.Link.Types = nil
			for _, name := range k.Strings(",") {
				lt, err := parseEnum(linkTypeNames, strings.TrimSpace(name), "link type")
				if err != nil {
					errs = append(errs, err)
					continue
				}
				c.Link.Types = append(c.Link.Types, lt)
			}
		}
	}
	if cfg.HasSection("net.init") {
		if k, err := cfg.Section("net.init").GetKey("layers"); err == nil {
			var layers []LayerDef
			if err := json.Unmarshal([]byte(k.String()), &layers); err != nil {
				errs = append(errs, fmt.Errorf("failed to parse net.init.layers: %w", err))
			} else {
				c.Net.Init.Layers = layers
			}
		}
	}
	if cfg.HasSection("data") {
		if k, err := cfg.Section("data").GetKey("sets"); err == nil {
			sets := map[string]float64{}
			if err := json.Unmarshal([]byte(k.String()), &sets); err != nil {
				errs = append(errs, fmt.Errorf("failed to parse data.sets: %w", err))
			} else {
				c.Data.Sets = sets
			}
		}
	}
	return errors.Join(errs...)
}

// Validate runs every configuration check and reports all failures at
// once.
func (c *Conf) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, errf("config error: "+format, args...))
		}
	}

	check(c.Net.Init.Count > 0, "net.init.count must be positive")
	check(len(c.Net.Init.Layers) >= 2, "net.init.layers must contain at least 2 layers (input and output)")
	for i, ld := range c.Net.Init.Layers {
		check(len(ld.Nodes) > 0, "net.init.layers[%d] must contain at least one node", i)
	}
	check(c.Net.Max.Count == 0 || c.Net.Max.Count >= c.Net.Init.Count,
		"net.max.count (%d) must be zero or at least net.init.count (%d)", c.Net.Max.Count, c.Net.Init.Count)
	check(c.Net.Max.Age >= 0, "net.max.age cannot be negative")
	if c.Net.Type == SpikingNet {
		check(c.Net.Spike.Max.Delay > 0, "net.spike.max.delay must be positive")
		if c.Net.RF.Type == GaussianRF {
			check(c.Net.RF.GRF.Nodes > 0, "net.rf.grf.nodes must be positive")
			check(c.Net.RF.GRF.Cutoff >= 0 && c.Net.RF.GRF.Cutoff <= 1, "net.rf.grf.cutoff must lie in [0, 1]")
		}
	}

	errs = append(errs, c.Node.Tau.Validate("node.tau")...)
	errs = append(errs, c.Link.Weight.Validate("link.weight")...)

	// Forward links are always allowed.
	hasForward := false
	for _, lt := range c.Link.Types {
		if lt == ForwardLink {
			hasForward = true
		}
	}
	if !hasForward {
		c.Link.Types = append([]LinkType{ForwardLink}, c.Link.Types...)
	}

	if c.Species.Enabled {
		check(c.Species.Init.Count > 0, "species.init.count must be positive")
		check(c.Species.Max.Count == 0 || c.Species.Max.Count >= c.Species.Init.Count,
			"species.max.count (%d) must be zero or at least species.init.count (%d)", c.Species.Max.Count, c.Species.Init.Count)
	}

	for name := range c.Mutation.Prob {
		if _, ok := mutOpNames[name]; !ok {
			check(false, "unknown mutation operator %q in mutation.prob", name)
		}
	}
	total := 0.0
	for _, p := range c.Mutation.Prob {
		check(p >= 0, "mutation.prob entries cannot be negative")
		total += p
	}
	check(total > 0, "mutation.prob must contain at least one positive weight")

	check(c.Learning.Mutation.Scale > 0 && c.Learning.Mutation.Scale < 1,
		"learning.mutation.scale must lie in (0, 1), got %g", c.Learning.Mutation.Scale)
	if c.Learning.Mode == STDPLearning {
		check(c.Learning.STDP.Rate > 0 && c.Learning.STDP.Rate < 1,
			"learning.stdp.rate must lie in (0, 1), got %g", c.Learning.STDP.Rate)
		check(c.Learning.STDP.DpRatio > 0, "learning.stdp.dp_ratio must be positive")
		check(c.Net.Type == SpikingNet, "learning.mode 'stdp' requires net.type 'spiking'")
	}

	check(c.Fitness.Stat.Alpha > 0, "fitness.stat.alpha must be positive")

	check(c.Task.Runs > 0, "task.runs must be positive")
	check(c.Task.Epochs > 0, "task.epochs must be positive")
	check(c.Task.Threads > 0, "task.threads must be positive")

	setTotal := 0.0
	for name, w := range c.Data.Sets {
		switch name {
		case "train", "dev", "test":
		default:
			check(false, "unknown data set %q in data.sets", name)
		}
		check(w >= 0, "data.sets[%q] cannot be negative", name)
		setTotal += w
	}
	check(setTotal > 0, "data.sets must contain at least one positive weight")
	check(c.Data.Samples >= 0, "data.samples cannot be negative")
	if c.Data.Type == ImageData {
		check(c.Data.Image.Dim[1] > 0 && c.Data.Image.Dim[2] > 0,
			"data.image.dim must have positive height and width for image data")
	}

	return errors.Join(errs...)
}

// Save writes the configuration as an indented JSON document, used by
// the -g flag to generate a defaults file.
func (c *Conf) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration to '%s': %w", path, err)
	}
	return nil
}
