package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/traiter/internal/rules"
)

// Load error codes. Rule configuration errors use the E2xx range (see
// rules.ConfigError).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
)

// LoadResult contains the grammars read from CUE files.
type LoadResult struct {
	Definitions []*Definition
	CUEValue    cue.Value // The raw CUE value for additional processing
	FileCount   int       // Number of CUE files found
}

// LoadError represents an error that occurred while loading grammar files.
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

// LoadDir loads every CUE file in dir as one package and reads its
// grammars. Grammar errors are collected; a nil result means nothing could
// be loaded at all.
func LoadDir(dir string, cat Catalog) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("grammar directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing grammar directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	return loadInstance([]string{"."}, dir, len(cueFiles), cat)
}

// LoadFile loads a single CUE file and reads its grammars.
func LoadFile(path string, cat Catalog) (*LoadResult, []error) {
	if _, err := os.Stat(path); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("grammar file not found: %s", path)}}
	}
	return loadInstance([]string{filepath.Base(path)}, filepath.Dir(path), 1, cat)
}

func loadInstance(args []string, dir string, fileCount int, cat Catalog) (*LoadResult, []error) {
	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	defs, errs := ParseGrammars(value, cat)
	return &LoadResult{
		Definitions: defs,
		CUEValue:    value,
		FileCount:   fileCount,
	}, errs
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

// ErrorCode maps a grammar loading or compile error to its code.
func ErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field)
	}
	if ces := rules.ConfigErrors(err); len(ces) > 0 {
		return ces[0].Code
	}
	return ErrCodeGeneric
}

// Grammar file errors, by the field they were found in.
const (
	ErrCodeSchema  = "E101" // Schema violation
	ErrCodeExtends = "E102" // Unknown base grammar
	ErrCodeAction  = "E103" // Unknown action
	ErrCodeFixUp   = "E104" // Unknown fix-up
	ErrCodeRoot    = "E105" // No grammar struct
)

// MapFieldToErrorCode maps a CompileError field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeSchema
	case "extends":
		return ErrCodeExtends
	case "action":
		return ErrCodeAction
	case "fixups":
		return ErrCodeFixUp
	case "grammar":
		return ErrCodeRoot
	default:
		return ErrCodeGeneric
	}
}
