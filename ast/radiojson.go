package ast

import (
	"encoding/json"
	"fmt"
)

// jsonRadioNode is the wire shape for RadioNode's JSON document, same
// kind-discriminated layout as jsonNode. Embedded GCX expressions reuse
// Node's own marshaling.
type jsonRadioNode struct {
	Kind string `json:"kind"`

	Chara *uint16 `json:"chara,omitempty"`
	Anim  *uint16 `json:"anim,omitempty"`
	Unk   *uint16 `json:"unk,omitempty"`
	Text  *string `json:"text,omitempty"`

	Voice *jsonTable      `json:"voice,omitempty"`
	Body  []jsonRadioNode `json:"body,omitempty"`

	Frequency *uint16 `json:"frequency,omitempty"`
	Name      *string `json:"name,omitempty"`

	Gcl   []Node  `json:"gcl,omitempty"`
	Sound *string `json:"sound,omitempty"`

	Then []jsonRadioNode `json:"then,omitempty"`

	SwitchValue *uint16         `json:"switch_value,omitempty"`
	CaseValue   *uint16         `json:"case_value,omitempty"`
	Cases       []jsonRadioNode `json:"cases,omitempty"`

	Script []jsonRadioNode `json:"script,omitempty"`
}

func toJSONRadioNodes(nodes []RadioNode) []jsonRadioNode {
	if nodes == nil {
		return nil
	}
	out := make([]jsonRadioNode, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].toJSON()
	}
	return out
}

func (n RadioNode) toJSON() jsonRadioNode {
	j := jsonRadioNode{Kind: n.Kind.String()}
	switch n.Kind {
	case RadioTalk:
		j.Chara = &n.CharaID
		j.Anim = &n.AnimID
		j.Unk = &n.Unk
		j.Text = &n.Text
	case RadioVoice:
		if n.Voice.IsName {
			j.Voice = &jsonTable{Name: n.Voice.Name}
		} else {
			j.Voice = &jsonTable{Literal: n.Voice.Literal}
		}
		j.Body = toJSONRadioNodes(n.Body)
	case RadioAnim:
		j.Chara = &n.CharaID
		j.Anim = &n.AnimID
		j.Unk = &n.Unk
	case RadioAddContact:
		j.Frequency = &n.Frequency
		j.Name = &n.Name
	case RadioMemsave, RadioVarsave, RadioPrompt, RadioEval:
		j.Gcl = n.Gcl
	case RadioSound:
		j.Sound = &n.SoundHex
	case RadioIf, RadioElseif:
		j.Gcl = n.Gcl
		j.Then = toJSONRadioNodes(n.Then)
	case RadioElse:
		j.Then = toJSONRadioNodes(n.Then)
	case RadioRandswitch:
		j.SwitchValue = &n.SwitchValue
		j.Cases = toJSONRadioNodes(n.Cases)
	case RadioRandswitchCase:
		j.CaseValue = &n.CaseValue
		j.Then = toJSONRadioNodes(n.Then)
	case RadioScript:
		j.Script = toJSONRadioNodes(n.Script)
	}
	return j
}

// MarshalJSON renders n as a kind-tagged document.
func (n RadioNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

var radioKindByName = func() map[string]RadioKind {
	m := make(map[string]RadioKind, len(radioKindNames))
	for k, name := range radioKindNames {
		m[name] = k
	}
	return m
}()

func fromJSONRadioNodes(in []jsonRadioNode) ([]RadioNode, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]RadioNode, len(in))
	for i := range in {
		n, err := in[i].toNode()
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (j jsonRadioNode) toNode() (RadioNode, error) {
	kind, ok := radioKindByName[j.Kind]
	if !ok {
		return RadioNode{}, &InvariantViolationError{Message: fmt.Sprintf("unknown radio node kind %q in json document", j.Kind)}
	}
	n := RadioNode{Kind: kind}
	if j.Chara != nil {
		n.CharaID = *j.Chara
	}
	if j.Anim != nil {
		n.AnimID = *j.Anim
	}
	if j.Unk != nil {
		n.Unk = *j.Unk
	}
	if j.Text != nil {
		n.Text = *j.Text
	}
	if j.Voice != nil {
		if j.Voice.Name != "" {
			n.Voice = TableValue{IsName: true, Name: j.Voice.Name}
		} else {
			n.Voice = TableValue{Literal: j.Voice.Literal}
		}
	}
	if j.Frequency != nil {
		n.Frequency = *j.Frequency
	}
	if j.Name != nil {
		n.Name = *j.Name
	}
	if j.Sound != nil {
		n.SoundHex = *j.Sound
	}
	if j.SwitchValue != nil {
		n.SwitchValue = *j.SwitchValue
	}
	if j.CaseValue != nil {
		n.CaseValue = *j.CaseValue
	}
	n.Gcl = j.Gcl

	var err error
	if n.Body, err = fromJSONRadioNodes(j.Body); err != nil {
		return RadioNode{}, err
	}
	if n.Then, err = fromJSONRadioNodes(j.Then); err != nil {
		return RadioNode{}, err
	}
	if n.Cases, err = fromJSONRadioNodes(j.Cases); err != nil {
		return RadioNode{}, err
	}
	if n.Script, err = fromJSONRadioNodes(j.Script); err != nil {
		return RadioNode{}, err
	}
	return n, nil
}

// UnmarshalJSON parses a document produced by MarshalJSON back into n.
func (n *RadioNode) UnmarshalJSON(data []byte) error {
	var j jsonRadioNode
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	parsed, err := j.toNode()
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
