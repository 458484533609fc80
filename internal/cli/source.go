package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

// stdinPath reads a payload from standard input.
const stdinPath = "-"

// loadInput reads a payload file, or stdin for "-". A non-empty kind
// replaces the kind found in the document.
func loadInput(path string, stdin io.Reader, kind string) (payload.Input, error) {
	var (
		in  payload.Input
		err error
	)
	if path == stdinPath {
		raw, rerr := io.ReadAll(stdin)
		if rerr != nil {
			return payload.Input{}, errors.Wrap(errors.ErrCodeInvalidInput, rerr, "read stdin")
		}
		in, err = payload.Parse(raw, payload.FormatJSON)
	} else {
		in, err = payload.Load(path)
	}
	if err != nil {
		return payload.Input{}, err
	}
	if kind != "" {
		k, err := payload.ParseKind(kind)
		if err != nil {
			return payload.Input{}, err
		}
		in.Kind = k
	}
	return in, nil
}

// loadStatus reads a status document ({"status", "progress", "error"}).
// A missing file is the idle state.
func loadStatus(path string) (inspect.StatusState, error) {
	if err := errors.ValidatePath(path); err != nil {
		return inspect.StatusState{}, err
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return inspect.StatusState{Status: inspect.StatusIdle}, nil
	}
	if err != nil {
		return inspect.StatusState{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return parseStatus(raw)
}

func parseStatus(raw []byte) (inspect.StatusState, error) {
	var st inspect.StatusState
	if err := json.Unmarshal(raw, &st); err != nil {
		return inspect.StatusState{}, errors.Wrap(errors.ErrCodeInvalidStatus, err, "parse status")
	}
	status, err := inspect.ParseStatus(string(st.Status))
	if err != nil {
		return inspect.StatusState{}, err
	}
	st.Status = status
	return st, nil
}

// loadGeometryNode reads a geometry node document.
func loadGeometryNode(path string, stdin io.Reader) (inspect.GeometryNode, error) {
	var (
		raw []byte
		err error
	)
	if path == stdinPath {
		raw, err = io.ReadAll(stdin)
	} else {
		if verr := errors.ValidatePath(path); verr != nil {
			return inspect.GeometryNode{}, verr
		}
		raw, err = os.ReadFile(path)
		if os.IsNotExist(err) {
			return inspect.GeometryNode{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "geometry node file %s", path)
		}
	}
	if err != nil {
		return inspect.GeometryNode{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	var n inspect.GeometryNode
	if err := json.Unmarshal(raw, &n); err != nil {
		return inspect.GeometryNode{}, errors.Wrap(errors.ErrCodeInvalidPayload, err, "parse geometry node")
	}
	if _, err := inspect.ParseStatus(string(n.Status)); err != nil {
		return inspect.GeometryNode{}, err
	}
	return n, nil
}
