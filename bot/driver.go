package bot

import (
	"embed"
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/crownclash/arena"
	"github.com/milk9111/crownclash/combat"
	"github.com/milk9111/crownclash/config"
)

//go:embed scripts/*.tengo
var scripts embed.FS

// DefaultScript is the embedded stock brawler behavior.
const DefaultScript = "scripts/brawler.tengo"

const thinkDispatchScript = `
think(__engine, __state)
`

// LoadScript reads a script from disk, or the embedded default when path
// is empty.
func LoadScript(path string) ([]byte, error) {
	if path == "" {
		return scripts.ReadFile(DefaultScript)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bot: read script %s: %w", path, err)
	}
	return data, nil
}

// Driver runs a tengo script that decides one fighter's actions. The
// script defines `think(engine, state)`; engine exposes the fighter's view
// of the bout plus move/jump/swing actions, state is a scratch map that
// persists across think ticks.
type Driver struct {
	fighter  arena.Ref
	tuning   *config.Store
	compiled *tengo.Compiled
	state    *tengo.Map
}

// New compiles src into a driver for the given fighter.
func New(src []byte, fighter arena.Ref, tuning *config.Store) (*Driver, error) {
	script := tengo.NewScript(append(append([]byte{}, src...), []byte(thinkDispatchScript)...))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("bot: compile script: %w", err)
	}
	return &Driver{
		fighter:  fighter,
		tuning:   tuning,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

// Fighter returns the ref of the fighter this driver controls.
func (d *Driver) Fighter() arena.Ref {
	if d == nil {
		return arena.Ref{}
	}
	return d.fighter
}

// Think runs one decision tick. Callers hold the simulation lock. A
// despawned fighter makes this a no-op.
func (d *Driver) Think(world *arena.World, core *combat.Core) error {
	if d == nil || d.compiled == nil || world == nil || core == nil {
		return nil
	}
	f, ok := world.Resolve(d.fighter)
	if !ok {
		return nil
	}

	engine := d.buildEngine(world, core, f)
	if err := d.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := d.compiled.Set("__state", d.state); err != nil {
		return err
	}
	return d.compiled.Run()
}

func (d *Driver) buildEngine(world *arena.World, core *combat.Core, f *arena.Fighter) *tengo.ImmutableMap {
	cfg := d.tuning.Current()
	values := map[string]tengo.Object{
		"x":            &tengo.Float{Value: f.Position().X},
		"y":            &tengo.Float{Value: f.Position().Y},
		"facing":       &tengo.Float{Value: f.Facing.X},
		"health":       &tengo.Float{Value: f.Health},
		"control":      &tengo.String{Value: f.Control.String()},
		"motion":       &tengo.String{Value: f.Motion.String()},
		"swinging":     boolValue(core.Swinging(f.Ref())),
		"jump_ready":   boolValue(f.JumpEnabled),
		"attack_range": &tengo.Float{Value: cfg.Combat.AttackRange},
	}

	// scan wide enough to see across the whole arena
	scan := cfg.Arena.Width + cfg.Arena.Height
	if foe, found := combat.FindTarget(world.Fighters(), f, scan); found {
		values["foe"] = &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"x":       &tengo.Float{Value: foe.Position().X},
			"y":       &tengo.Float{Value: foe.Position().Y},
			"dist":    &tengo.Float{Value: foe.Position().Distance(f.Position())},
			"control": &tengo.String{Value: foe.Control.String()},
		}}
	} else {
		values["foe"] = tengo.UndefinedValue
	}

	values["move"] = &tengo.UserFunction{Name: "move", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		dx, _ := tengo.ToFloat64(args[0])
		world.SetMove(f, dx)
		return tengo.TrueValue, nil
	}}
	values["jump"] = &tengo.UserFunction{Name: "jump", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return boolValue(world.Jump(f)), nil
	}}
	values["swing"] = &tengo.UserFunction{Name: "swing", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return boolValue(core.StartSwing(f) == nil), nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func boolValue(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}
