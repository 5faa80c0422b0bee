package cortex

import "encoding/json"

// JSON round-tripping for the enums that appear in configuration
// documents. Values are stored by name so that generated defaults stay
// readable and hand-edited documents fail with a clear message.

func marshalEnum[E comparable](names map[string]E, val E) ([]byte, error) {
	return json.Marshal(enumName(names, val))
}

func unmarshalEnum[E comparable](names map[string]E, data []byte, what string) (E, error) {
	var s string
	var zero E
	if err := json.Unmarshal(data, &s); err != nil {
		return zero, err
	}
	return parseEnum(names, s, what)
}

func (nt NetType) MarshalJSON() ([]byte, error) { return marshalEnum(netTypeNames, nt) }

func (nt *NetType) UnmarshalJSON(data []byte) (err error) {
	*nt, err = unmarshalEnum(netTypeNames, data, "net.type")
	return err
}

func (lt LayerType) MarshalJSON() ([]byte, error) { return marshalEnum(layerTypeNames, lt) }

func (lt *LayerType) UnmarshalJSON(data []byte) (err error) {
	*lt, err = unmarshalEnum(layerTypeNames, data, "layer type")
	return err
}

func (lt LinkType) MarshalJSON() ([]byte, error) { return marshalEnum(linkTypeNames, lt) }

func (lt *LinkType) UnmarshalJSON(data []byte) (err error) {
	*lt, err = unmarshalEnum(linkTypeNames, data, "link type")
	return err
}

func (d Dist) MarshalJSON() ([]byte, error) { return marshalEnum(distNames, d) }

func (d *Dist) UnmarshalJSON(data []byte) (err error) {
	*d, err = unmarshalEnum(distNames, data, "distribution")
	return err
}

func (lm LearningMode) MarshalJSON() ([]byte, error) { return marshalEnum(learningModeNames, lm) }

func (lm *LearningMode) UnmarshalJSON(data []byte) (err error) {
	*lm, err = unmarshalEnum(learningModeNames, data, "learning.mode")
	return err
}

func (se SpikeEnc) MarshalJSON() ([]byte, error) { return marshalEnum(spikeEncNames, se) }

func (se *SpikeEnc) UnmarshalJSON(data []byte) (err error) {
	*se, err = unmarshalEnum(spikeEncNames, data, "net.spike.enc")
	return err
}

func (rt RFType) MarshalJSON() ([]byte, error) { return marshalEnum(rfTypeNames, rt) }

func (rt *RFType) UnmarshalJSON(data []byte) (err error) {
	*rt, err = unmarshalEnum(rfTypeNames, data, "net.rf.type")
	return err
}

func (tt TaskType) MarshalJSON() ([]byte, error) { return marshalEnum(taskTypeNames, tt) }

func (tt *TaskType) UnmarshalJSON(data []byte) (err error) {
	*tt, err = unmarshalEnum(taskTypeNames, data, "task.type")
	return err
}

func (dt DataType) MarshalJSON() ([]byte, error) { return marshalEnum(dataTypeNames, dt) }

func (dt *DataType) UnmarshalJSON(data []byte) (err error) {
	*dt, err = unmarshalEnum(dataTypeNames, data, "data.type")
	return err
}
