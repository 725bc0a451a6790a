package ast

import (
	"encoding/json"
	"fmt"
)

// jsonNode is the wire shape for Node's JSON document: a "kind" discriminator
// plus one further key, named after the populated payload field (and the
// no_braces/null_size annotation flags when they are set), so a
// decompiled tree reads as a compact, kind-tagged document rather than one
// giant struct with forty mostly-empty fields.
type jsonNode struct {
	Kind string `json:"kind"`

	Word     *uint16     `json:"word,omitempty"`
	Byte     *uint8      `json:"byte,omitempty"`
	Char     *uint8      `json:"char,omitempty"`
	Flag     *bool       `json:"flag,omitempty"`
	StrID    *uint16     `json:"str_id,omitempty"`
	Str      *string     `json:"str,omitempty"`
	Proc     *uint16     `json:"proc,omitempty"`
	SDCode   *uint32     `json:"sd_code,omitempty"`
	Table    *jsonTable  `json:"table,omitempty"`
	Var      *jsonVar    `json:"var,omitempty"`
	Arg      *uint8      `json:"arg,omitempty"`
	Expr     []jsonNode  `json:"expr,omitempty"`
	Op       *jsonOp     `json:"op,omitempty"`
	Script   []jsonNode  `json:"script,omitempty"`
	Option   *jsonOption `json:"option,omitempty"`
	Cmd      *jsonCmd    `json:"cmd,omitempty"`
	Call     *jsonCall   `json:"call,omitempty"`
	NoBraces bool        `json:"no_braces,omitempty"`
	NullSize bool        `json:"null_size,omitempty"`
}

type jsonTable struct {
	Name    string `json:"name,omitempty"`
	Literal uint32 `json:"literal,omitempty"`
}

type jsonVar struct {
	Sub string `json:"sub"`
	ID  string `json:"id"`
}

type jsonOp struct {
	Operator string     `json:"operator"`
	Operands [2]jsonNode `json:"operands"`
}

type jsonOption struct {
	Letter string     `json:"letter"`
	Args   []jsonNode `json:"args,omitempty"`
}

type jsonCmd struct {
	Name string     `json:"name"`
	Args []jsonNode `json:"args,omitempty"`
}

type jsonCall struct {
	ProcID uint16     `json:"proc_id"`
	Args   []jsonNode `json:"args,omitempty"`
}

func toJSONNodes(nodes []Node) []jsonNode {
	if nodes == nil {
		return nil
	}
	out := make([]jsonNode, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].toJSON()
	}
	return out
}

func (n Node) toJSON() jsonNode {
	j := jsonNode{Kind: n.Kind.String(), NoBraces: n.NoBraces, NullSize: n.NullSize}
	switch n.Kind {
	case KindWord:
		j.Word = &n.Word
	case KindByte:
		j.Byte = &n.Byte_
	case KindChar:
		j.Char = &n.Char
	case KindFlag:
		j.Flag = &n.Flag
	case KindStrID:
		j.StrID = &n.StrID
	case KindStr:
		j.Str = &n.Str
	case KindProc:
		j.Proc = &n.Proc
	case KindSDCode:
		j.SDCode = &n.SDCode
	case KindTable:
		if n.Table.IsName {
			j.Table = &jsonTable{Name: n.Table.Name}
		} else {
			j.Table = &jsonTable{Literal: n.Table.Literal}
		}
	case KindVar:
		j.Var = &jsonVar{Sub: n.Var.Sub.String(), ID: n.Var.ID}
	case KindArg:
		j.Arg = &n.Arg
	case KindExpr:
		j.Expr = toJSONNodes(n.Expr)
	case KindOp:
		if n.Op != nil {
			j.Op = &jsonOp{
				Operator: n.Op.Operator.String(),
				Operands: [2]jsonNode{n.Op.Operands[0].toJSON(), n.Op.Operands[1].toJSON()},
			}
		}
	case KindScript:
		j.Script = toJSONNodes(n.Script)
	case KindOption:
		j.Option = &jsonOption{Letter: string(n.Option.Letter), Args: toJSONNodes(n.Option.Args)}
	case KindCmd:
		j.Cmd = &jsonCmd{Name: n.Cmd.Name.String(), Args: toJSONNodes(n.Cmd.Args)}
	case KindCall:
		j.Call = &jsonCall{ProcID: n.Call.ProcID, Args: toJSONNodes(n.Call.Args)}
	}
	return j
}

// MarshalJSON renders n as a kind-tagged document.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

func fromJSONNodes(in []jsonNode) ([]Node, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]Node, len(in))
	for i := range in {
		n, err := in[i].toNode()
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (j jsonNode) toNode() (Node, error) {
	kind, ok := kindByName[j.Kind]
	if !ok {
		return Node{}, &InvariantViolationError{Message: fmt.Sprintf("unknown node kind %q in json document", j.Kind)}
	}
	n := Node{Kind: kind, NoBraces: j.NoBraces, NullSize: j.NullSize}
	switch kind {
	case KindWord:
		if j.Word != nil {
			n.Word = *j.Word
		}
	case KindByte:
		if j.Byte != nil {
			n.Byte_ = *j.Byte
		}
	case KindChar:
		if j.Char != nil {
			n.Char = *j.Char
		}
	case KindFlag:
		if j.Flag != nil {
			n.Flag = *j.Flag
		}
	case KindStrID:
		if j.StrID != nil {
			n.StrID = *j.StrID
		}
	case KindStr:
		if j.Str != nil {
			n.Str = *j.Str
		}
	case KindProc:
		if j.Proc != nil {
			n.Proc = *j.Proc
		}
	case KindSDCode:
		if j.SDCode != nil {
			n.SDCode = *j.SDCode
		}
	case KindTable:
		if j.Table != nil {
			if j.Table.Name != "" {
				n.Table = TableValue{IsName: true, Name: j.Table.Name}
			} else {
				n.Table = TableValue{Literal: j.Table.Literal}
			}
		}
	case KindVar:
		if j.Var != nil {
			sub, ok := kindByName[j.Var.Sub]
			if !ok {
				return Node{}, &InvariantViolationError{Message: fmt.Sprintf("unknown var sub-kind %q", j.Var.Sub)}
			}
			n.Var = VarRef{Sub: sub, ID: j.Var.ID}
		}
	case KindArg:
		if j.Arg != nil {
			n.Arg = *j.Arg
		}
	case KindExpr:
		expr, err := fromJSONNodes(j.Expr)
		if err != nil {
			return Node{}, err
		}
		n.Expr = expr
	case KindOp:
		if j.Op != nil {
			op, ok := operatorByName[j.Op.Operator]
			if !ok {
				return Node{}, &InvariantViolationError{Message: fmt.Sprintf("unknown operator %q", j.Op.Operator)}
			}
			left, err := j.Op.Operands[0].toNode()
			if err != nil {
				return Node{}, err
			}
			right, err := j.Op.Operands[1].toNode()
			if err != nil {
				return Node{}, err
			}
			n.Op = &OpNode{Operator: op, Operands: [2]Node{left, right}}
		}
	case KindScript:
		script, err := fromJSONNodes(j.Script)
		if err != nil {
			return Node{}, err
		}
		n.Script = script
	case KindOption:
		if j.Option != nil {
			args, err := fromJSONNodes(j.Option.Args)
			if err != nil {
				return Node{}, err
			}
			var letter byte
			if len(j.Option.Letter) > 0 {
				letter = j.Option.Letter[0]
			}
			n.Option = OptionNode{Letter: letter, Args: args}
		}
	case KindCmd:
		if j.Cmd != nil {
			id, ok := CommandByName(j.Cmd.Name)
			if !ok {
				return Node{}, &InvariantViolationError{Message: fmt.Sprintf("unknown command %q", j.Cmd.Name)}
			}
			args, err := fromJSONNodes(j.Cmd.Args)
			if err != nil {
				return Node{}, err
			}
			n.Cmd = CmdNode{Name: id, Args: args}
		}
	case KindCall:
		if j.Call != nil {
			args, err := fromJSONNodes(j.Call.Args)
			if err != nil {
				return Node{}, err
			}
			n.Call = CallNode{ProcID: j.Call.ProcID, Args: args}
		}
	}
	return n, nil
}

// UnmarshalJSON parses a document produced by MarshalJSON back into n.
func (n *Node) UnmarshalJSON(data []byte) error {
	var j jsonNode
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

var operatorByName = func() map[string]OperatorCode {
	m := make(map[string]OperatorCode, len(operatorNames))
	for code, name := range operatorNames {
		m[name] = code
	}
	return m
}()
