// Package config loads the static description of a kernel instance, its
// tasks, resources, counters and alarms, from a YAML document. The kernel
// core only ever consumes already-resolved osek.Config structs, which is
// why this package lives outside osek/internal and is never imported by
// it.
//
// The document carries a single top-level "osek_config" section, decoded
// by walking the document's mapping node for the known section name:
//
//	osek_config:
//	  prio_count: 4
//	  tasks:
//	    Background: {base_priority: 0, autostart: true, max_activations: 1}
//	    Sampler:    {base_priority: 2, max_activations: 4, internal_resource: SamplerRes}
//	  resources:
//	    Scheduler:  {ceiling: 4}
//	    SamplerRes: {ceiling: 2}
//	  counters:
//	    SystemTimer: {modulus: 0}
//	  alarms:
//	    SamplerAlarm: {counter: SystemTimer, task: Sampler}
package config

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/elupus/osek-go/osek"
)

const osekConfigSectionName = "osek_config"

// TaskSpec is one named entry of the tasks section.
type TaskSpec struct {
	BasePriority     uint8  `yaml:"base_priority"`
	Autostart        bool   `yaml:"autostart"`
	MaxActivations   uint8  `yaml:"max_activations"`
	StackSize        uint32 `yaml:"stack_size"`
	InternalResource string `yaml:"internal_resource"`
}

// ResourceSpec is one named entry of the resources section.
type ResourceSpec struct {
	Ceiling uint8 `yaml:"ceiling"`
}

// CounterSpec is one named entry of the counters section.
type CounterSpec struct {
	Modulus uint64 `yaml:"modulus"`
}

// AlarmSpec is one named entry of the alarms section.
type AlarmSpec struct {
	Counter string `yaml:"counter"`
	Task    string `yaml:"task"`
}

// KernelSpec is the document's osek_config section, with every
// cross-reference still expressed as a name rather than an id: Build
// resolves names to ids and attaches task entry points.
type KernelSpec struct {
	PrioCount uint8                   `yaml:"prio_count"`
	Tasks     map[string]TaskSpec     `yaml:"tasks"`
	Resources map[string]ResourceSpec `yaml:"resources"`
	Counters  map[string]CounterSpec  `yaml:"counters"`
	Alarms    map[string]AlarmSpec    `yaml:"alarms"`
}

// DefaultKernelSpec returns an empty, but well-formed, KernelSpec: a single
// priority level and the scheduler-lock resource that Kernel.Init requires
// at id 0 of every Config.
func DefaultKernelSpec() *KernelSpec {
	return &KernelSpec{
		PrioCount: 1,
		Resources: map[string]ResourceSpec{"Scheduler": {Ceiling: 1}},
	}
}

// Load reads cfgFile (or decodes buf directly, for testing, when non-nil)
// and returns its osek_config section as a KernelSpec.
func Load(cfgFile string, buf []byte) (*KernelSpec, error) {
	if buf == nil {
		f, err := os.Open(cfgFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
		}
	}

	docNode := yaml.Node{}
	if err := yaml.Unmarshal(buf, &docNode); err != nil {
		return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
	}

	spec := DefaultKernelSpec()
	if docNode.Kind == yaml.DocumentNode && len(docNode.Content) > 0 {
		rootNode := docNode.Content[0]
		if rootNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("file: %q: invalid YAML root node %q", cfgFile, rootNode.Tag)
		}
		found := false
		for i := 0; i+1 < len(rootNode.Content); i += 2 {
			if rootNode.Content[i].Value != osekConfigSectionName {
				continue
			}
			if err := rootNode.Content[i+1].Decode(spec); err != nil {
				return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
			}
			found = true
		}
		if !found {
			return nil, fmt.Errorf("file: %q: missing %q section", cfgFile, osekConfigSectionName)
		}
	}

	return spec, nil
}

// Build resolves every name in spec into an osek.Config, assigning ids in
// sorted-name order for determinism, and wires in task entry points from
// entries (task name -> function). The resource named "Scheduler" is always
// forced to id 0 (osek.ResourceScheduler) and its ceiling to spec.PrioCount,
// matching the scheduler-lock invariant the kernel validates at Init.
func (spec *KernelSpec) Build(entries map[string]func()) (*osek.Config, error) {
	taskNames := sortedKeys(spec.Tasks)
	resourceNames := sortedResourceNames(spec.Resources)
	counterNames := sortedKeys(spec.Counters)
	alarmNames := sortedKeys(spec.Alarms)

	taskIdx := indexOf(taskNames)
	resourceIdx := indexOf(resourceNames)
	counterIdx := indexOf(counterNames)

	cfg := &osek.Config{
		PrioCount: osek.Priority(spec.PrioCount),
		Tasks:     make([]osek.TaskConfig, len(taskNames)),
		Resources: make([]osek.ResourceConfig, len(resourceNames)),
		Counters:  make([]osek.CounterConfig, len(counterNames)),
		Alarms:    make([]osek.AlarmConfig, len(alarmNames)),
	}

	for name, i := range taskIdx {
		ts := spec.Tasks[name]
		res := osek.NoResource
		if ts.InternalResource != "" {
			idx, ok := resourceIdx[ts.InternalResource]
			if !ok {
				return nil, fmt.Errorf("task %q: unknown internal_resource %q", name, ts.InternalResource)
			}
			res = osek.ResourceID(idx)
		}
		maxAct := ts.MaxActivations
		if maxAct == 0 {
			maxAct = 1
		}
		cfg.Tasks[i] = osek.TaskConfig{
			Name:             name,
			BasePriority:     osek.Priority(ts.BasePriority),
			Entry:            entries[name],
			StackSize:        ts.StackSize,
			Autostart:        ts.Autostart,
			MaxActivations:   maxAct,
			InternalResource: res,
		}
	}

	for name, i := range resourceIdx {
		rs := spec.Resources[name]
		ceiling := osek.Priority(rs.Ceiling)
		if name == "Scheduler" {
			ceiling = cfg.PrioCount
		}
		cfg.Resources[i] = osek.ResourceConfig{Name: name, Ceiling: ceiling}
	}

	for name, i := range counterIdx {
		cfg.Counters[i] = osek.CounterConfig{Name: name, Modulus: spec.Counters[name].Modulus}
	}

	for i, name := range alarmNames {
		as := spec.Alarms[name]
		cIdx, ok := counterIdx[as.Counter]
		if !ok {
			return nil, fmt.Errorf("alarm %q: unknown counter %q", name, as.Counter)
		}
		tIdx, ok := taskIdx[as.Task]
		if !ok {
			return nil, fmt.Errorf("alarm %q: unknown task %q", name, as.Task)
		}
		cfg.Alarms[i] = osek.AlarmConfig{Name: name, Counter: osek.CounterID(cIdx), Task: osek.TaskID(tIdx)}
	}

	return cfg, nil
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sortedResourceNames always places "Scheduler" first so it reliably lands
// on id 0 (osek.ResourceScheduler), regardless of lexical ordering; the
// other names keep their sorted order after it.
func sortedResourceNames(m map[string]ResourceSpec) []string {
	names := sortedKeys(m)
	for i, name := range names {
		if name == "Scheduler" {
			copy(names[1:i+1], names[:i])
			names[0] = name
			break
		}
	}
	return names
}

func indexOf(names []string) map[string]int {
	idx := make(map[string]int, len(names))
	for i, name := range names {
		idx[name] = i
	}
	return idx
}
