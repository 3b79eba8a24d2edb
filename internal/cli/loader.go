package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/reassign/internal/compiler"
	"github.com/roach88/reassign/internal/relation"
)

// LoadResult contains the declarations loaded from CUE files.
type LoadResult struct {
	Declarations []compiler.Declaration
	CUEValue     cue.Value // The raw CUE value for additional processing
	FileCount    int       // Number of CUE files found
}

// LoadError represents an error that occurred during declaration loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDeclarations loads and compiles relationship declarations from a CUE
// file or a directory of CUE files (one package). Declarations are not
// validated; see compiler.Validate.
func LoadDeclarations(path string) (*LoadResult, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "declarations path is required (--decls or config declarations)"}
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("declarations not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing declarations: %v", err)}
	}

	dir, args := path, []string{"."}
	fileCount := 1
	if info.IsDir() {
		cueFiles, err := FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(cueFiles) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
		fileCount = len(cueFiles)
	} else {
		if filepath.Ext(path) != ".cue" {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a CUE file: %s", path)}
		}
		dir, args = filepath.Dir(path), []string{filepath.Base(path)}
	}

	// Load CUE instances
	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	decls, err := compiler.CompileRelations(value)
	if err != nil {
		return nil, convertCompileError(err)
	}
	if len(decls) == 0 {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "no relation declarations found"}
	}

	return &LoadResult{
		Declarations: decls,
		CUEValue:     value,
		FileCount:    fileCount,
	}, nil
}

// LoadRegistry loads declarations from path and builds a sealed registry.
func LoadRegistry(path string) (*relation.Registry, error) {
	result, err := LoadDeclarations(path)
	if err != nil {
		return nil, err
	}
	if verrs := compiler.Validate(result.Declarations); len(verrs) > 0 {
		return nil, &LoadError{
			Code:    verrs[0].Code,
			Message: fmt.Sprintf("invalid declarations (%d error(s)), first: %s", len(verrs), verrs[0].Message),
		}
	}
	reg, err := compiler.BuildRegistry(result.Declarations)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return reg, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
// Declaration validation codes (E1xx) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // Store write error
	ErrCodeBadInput    = "E008" // Unreadable payload or flag value
	ErrCodeNoRecord    = "E009" // Record not found
	ErrCodeConflict    = "E010" // Requested record id already taken
)

// MapFieldToErrorCode maps a compiler error field ("Person.pets.child")
// to an error code.
func MapFieldToErrorCode(field string) string {
	switch field[strings.LastIndex(field, ".")+1:] {
	case "child":
		return compiler.ErrMissingChildType
	case "cardinality":
		return compiler.ErrInvalidCardinality
	case "ownership":
		return compiler.ErrInvalidOwnership
	case "nonexistent_id":
		return compiler.ErrInvalidPolicy
	default:
		return ErrCodeGeneric
	}
}
