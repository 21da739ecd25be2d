// Package rollout evaluates rollouts of execution states in a separate process.
//
// Requests and responses use the well-known protobuf types, so no generated code is needed:
// the request is a structpb.Struct and the reward a wrapperspb.DoubleValue.
package rollout

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName    = "symsched.rollout.Rollout"
	evaluateMethod = "/" + serviceName + "/Evaluate"
)

// Describes the state a rollout starts from
type Request struct {
	StateID uint64
	Block   string
	Depth   int
	Level   int
	// The maximal number of steps of the rollout
	Steps int
}

// Computes the reward of a rollout
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (float64, error)
}

func (r Request) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"state_id": float64(r.StateID),
		"block":    r.Block,
		"depth":    r.Depth,
		"level":    r.Level,
		"steps":    r.Steps,
	})
}

func requestFromStruct(s *structpb.Struct) (Request, error) {
	fields := s.GetFields()
	block := fields["block"].GetStringValue()
	if block == "" {
		return Request{}, fmt.Errorf("rollout: request has no block")
	}
	req := Request{Block: block}
	for name, dst := range map[string]*int{"depth": &req.Depth, "level": &req.Level, "steps": &req.Steps} {
		v := fields[name].GetNumberValue()
		if v < 0 || v != math.Trunc(v) {
			return Request{}, fmt.Errorf("rollout: invalid %v %v", name, v)
		}
		*dst = int(v)
	}
	id := fields["state_id"].GetNumberValue()
	if id < 0 || id != math.Trunc(id) {
		return Request{}, fmt.Errorf("rollout: invalid state id %v", id)
	}
	req.StateID = uint64(id)
	return req, nil
}
