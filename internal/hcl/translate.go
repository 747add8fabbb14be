package hcl

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/stayops/pricegrid/internal/config"
)

// extractBodyAttributes pulls the raw attribute expressions out of a block
// body so the agnostic model can carry them without any HCL block types.
func (l *Loader) extractBodyAttributes(args *StepArgs) map[string]hcl.Expression {
	out := make(map[string]hcl.Expression)
	if args == nil || args.Body == nil {
		return out
	}
	attrs, _ := args.Body.JustAttributes()
	for name, attr := range attrs {
		out[name] = attr.Expr
	}
	return out
}

// extractUsesAttributes is the uses-block variant of extractBodyAttributes.
func (l *Loader) extractUsesAttributes(uses *UsesBlock) map[string]hcl.Expression {
	out := make(map[string]hcl.Expression)
	if uses == nil || uses.Body == nil {
		return out
	}
	attrs, _ := uses.Body.JustAttributes()
	for name, attr := range attrs {
		out[name] = attr.Expr
	}
	return out
}

// translateStep converts the HCL-specific step schema into the agnostic model.
func (l *Loader) translateStep(s *Step) *config.Step {
	return &config.Step{
		RunnerType: s.RunnerType,
		Name:       s.Name,
		Arguments:  l.extractBodyAttributes(s.Arguments),
		Uses:       l.extractUsesAttributes(s.Uses),
		DependsOn:  s.DependsOn,
	}
}

// translateResource converts the HCL-specific resource schema into the agnostic model.
func (l *Loader) translateResource(r *Resource) *config.Resource {
	return &config.Resource{
		AssetType: r.AssetType,
		Name:      r.Name,
		Arguments: l.extractBodyAttributes(r.Arguments),
		DependsOn: r.DependsOn,
	}
}

// translateRunnerDefinition converts the HCL-specific runner schema into the agnostic model.
func (l *Loader) translateRunnerDefinition(s *RunnerDefinition) *config.RunnerDefinition {
	r := &config.RunnerDefinition{
		Type:        s.Type,
		Description: s.Description,
		Inputs:      make(map[string]*config.InputDefinition),
		Outputs:     make(map[string]*config.OutputDefinition),
		Uses:        make(map[string]*config.UsesDefinition),
	}
	if s.Lifecycle != nil {
		r.Lifecycle = &config.Lifecycle{OnRun: s.Lifecycle.OnRun}
	}
	for _, in := range s.Inputs {
		r.Inputs[in.Name] = translateInput(in)
	}
	for _, out := range s.Outputs {
		r.Outputs[out.Name] = &config.OutputDefinition{
			Name:        out.Name,
			Description: out.Description,
		}
	}
	for _, use := range s.Uses {
		r.Uses[use.LocalName] = &config.UsesDefinition{
			LocalName: use.LocalName,
			AssetType: use.AssetType,
		}
	}
	return r
}

// translateAssetDefinition converts the HCL-specific asset schema into the agnostic model.
func (l *Loader) translateAssetDefinition(s *AssetDefinition) *config.AssetDefinition {
	a := &config.AssetDefinition{
		Type:        s.Type,
		Description: s.Description,
		Inputs:      make(map[string]*config.InputDefinition),
		Outputs:     make(map[string]*config.OutputDefinition),
	}
	if s.Lifecycle != nil {
		a.Lifecycle = &config.AssetLifecycle{Create: s.Lifecycle.Create, Destroy: s.Lifecycle.Destroy}
	}
	for _, in := range s.Inputs {
		a.Inputs[in.Name] = translateInput(in)
	}
	for _, out := range s.Outputs {
		a.Outputs[out.Name] = &config.OutputDefinition{
			Name:        out.Name,
			Description: out.Description,
		}
	}
	return a
}

// translateInput converts a single input block. A default is only honored
// when it is non-null; a valid default makes the input optional, as does an
// explicit optional marker.
func translateInput(in *InputDefinition) *config.InputDefinition {
	def := &config.InputDefinition{
		Name:        in.Name,
		Description: in.Description,
		Optional:    in.Optional,
	}
	if in.Default != nil && !in.Default.IsNull() {
		v := *in.Default
		def.Default = &v
		def.Optional = true
	}
	return def
}
