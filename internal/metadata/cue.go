package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"

	"github.com/roach88/bslq/internal/ir"
)

// registerSections maps the labels under "register" to register kinds.
var registerSections = map[string]ir.MetadataKind{
	"information":  ir.KindInformationRegister,
	"accumulation": ir.KindAccumulationRegister,
	"accounting":   ir.KindAccountingRegister,
	"calculation":  ir.KindCalculationRegister,
}

// LoadCUE reads every object declared in the CUE package in dir:
//
//	catalog: Номенклатура: {
//		attributes: {Артикул: "Строка(25)"}
//		tabular_sections: {Цены: {Цена: "Число(15,2)"}}
//	}
//	document: ЗаказКлиента: {attributes: {...}}
//	register: accumulation: ТоварыНаСкладах: {
//		dimensions: {Номенклатура: "СправочникСсылка.Номенклатура"}
//		resources: {Количество: "Число(15,3)"}
//	}
//
// An attribute is either a type name or a struct with a "type" field.
// All object errors are collected; a nil provider means nothing could be
// read at all.
func LoadCUE(dir string) (*Static, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("metadata directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing metadata directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{convertCUEError(ErrCodeBuildFailed, err)}
	}
	if err := value.Validate(); err != nil {
		return nil, []error{convertCUEError(ErrCodeBuildFailed, err)}
	}
	return decodeRoot(value)
}

// LoadCUEString decodes a metadata tree from CUE source text.
func LoadCUEString(src string) (*Static, []error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Validate(); err != nil {
		return nil, []error{convertCUEError(ErrCodeBuildFailed, err)}
	}
	return decodeRoot(value)
}

func decodeRoot(value cue.Value) (*Static, []error) {
	var errs []error
	s := NewStatic()

	for _, kind := range []ir.MetadataKind{ir.KindCatalog, ir.KindDocument} {
		section := value.LookupPath(cue.ParsePath(string(kind)))
		if !section.Exists() {
			continue
		}
		errs = append(errs, decodeObjects(section, kind, s)...)
	}

	registers := value.LookupPath(cue.ParsePath("register"))
	if registers.Exists() {
		iter, err := registers.Fields()
		if err != nil {
			errs = append(errs, convertCUEError(ErrCodeDecode, err))
		} else {
			for iter.Next() {
				label := labelOf(iter.Selector())
				kind, ok := registerSections[label]
				if !ok {
					errs = append(errs, &LoadError{
						Code:    ErrCodeDecode,
						Message: fmt.Sprintf("register.%s: unknown register kind", label),
						Pos:     iter.Value().Pos(),
					})
					continue
				}
				errs = append(errs, decodeObjects(iter.Value(), kind, s)...)
			}
		}
	}

	if len(s.objects) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no catalogs, documents or registers found"})
	}
	return s, errs
}

func decodeObjects(section cue.Value, kind ir.MetadataKind, s *Static) []error {
	iter, err := section.Fields()
	if err != nil {
		return []error{convertCUEError(ErrCodeDecode, err)}
	}
	var errs []error
	for iter.Next() {
		obj, err := decodeObject(iter.Value(), kind, labelOf(iter.Selector()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.Add(obj)
	}
	return errs
}

func decodeObject(v cue.Value, kind ir.MetadataKind, name string) (*Object, error) {
	obj := &Object{Kind: kind, Name: name, Attributes: []ir.Attribute{}}

	var err error
	if obj.Attributes, err = decodeAttributes(v, "attributes"); err != nil {
		return nil, err
	}

	if kind.IsRegister() {
		if obj.Dimensions, err = decodeAttributes(v, "dimensions"); err != nil {
			return nil, err
		}
		if obj.Resources, err = decodeAttributes(v, "resources"); err != nil {
			return nil, err
		}
		return obj, nil
	}

	sections := v.LookupPath(cue.ParsePath("tabular_sections"))
	if !sections.Exists() {
		return obj, nil
	}
	iter, err := sections.Fields()
	if err != nil {
		return nil, convertCUEError(ErrCodeDecode, err)
	}
	for iter.Next() {
		attrs, err := decodeAttributeStruct(iter.Value())
		if err != nil {
			return nil, err
		}
		obj.TabularSections = append(obj.TabularSections, ir.TabularSection{
			Name:       labelOf(iter.Selector()),
			Attributes: attrs,
		})
	}
	return obj, nil
}

func decodeAttributes(v cue.Value, field string) ([]ir.Attribute, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return []ir.Attribute{}, nil
	}
	return decodeAttributeStruct(fv)
}

// decodeAttributeStruct reads {Name: "Type", Other: {type: "Type"}} in
// declaration order.
func decodeAttributeStruct(v cue.Value) ([]ir.Attribute, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, convertCUEError(ErrCodeDecode, err)
	}
	attrs := []ir.Attribute{}
	for iter.Next() {
		name := labelOf(iter.Selector())
		typ, err := attributeType(iter.Value())
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, ir.Attribute{Name: name, Type: typ})
	}
	return attrs, nil
}

func attributeType(v cue.Value) (string, error) {
	if s, err := v.String(); err == nil {
		return s, nil
	}
	tv := v.LookupPath(cue.ParsePath("type"))
	if tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return "", convertCUEError(ErrCodeDecode, err)
		}
		return s, nil
	}
	return "", &LoadError{
		Code:    ErrCodeDecode,
		Message: fmt.Sprintf("%s: attribute must be a type name or a struct with a type field", v.Path()),
		Pos:     v.Pos(),
	}
}

// labelOf returns the unquoted field name of a regular struct field.
func labelOf(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

// convertCUEError keeps the position of the first CUE error.
func convertCUEError(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
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
