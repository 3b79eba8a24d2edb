package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/reassign/internal/relation"
)

// CompileSource compiles inline CUE declarations, such as those embedded in
// harness scenarios. filename is used for error positions only.
func CompileSource(src, filename string) ([]Declaration, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileRelations(v)
}

// BuildRegistry validates decls, declares them in a new registry and seals
// it. All validation errors are reported together.
func BuildRegistry(decls []Declaration) (*relation.Registry, error) {
	if verrs := Validate(decls); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, fmt.Errorf("invalid declarations: %w", errors.Join(errs...))
	}

	reg := relation.NewRegistry()
	if err := Register(reg, decls); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}
