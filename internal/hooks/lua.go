package hooks

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/voxfall/server/internal/voxel"
)

// Engine wraps a single gopher-lua VM hosting scripted effect hooks.
// Single-goroutine access only (loop goroutine).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
	reg *Registry
}

// NewEngine creates a Lua engine, exposes register_effect to scripts, and
// loads every .lua file in the given directory. Scripts register hooks by
// name; registration errors (duplicates) abort loading.
func NewEngine(scriptsDir string, reg *Registry, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, reg: reg}
	vm.SetGlobal("register_effect", vm.NewFunction(e.luaRegisterEffect))

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load effect scripts: %w", err)
	}
	return e, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory. A missing directory is
// fine: hooks can all come from Go.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// luaRegisterEffect implements register_effect(name, fn). The Lua callback
// receives a table describing the voxel and may set voxel.already_debris;
// that writeback is applied to the Go voxel after the call.
func (e *Engine) luaRegisterEffect(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	err := e.reg.Register(name, e.wrap(name, fn))
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	return 0
}

func (e *Engine) wrap(name string, fn *lua.LFunction) Hook {
	return func(v *voxel.Voxel, info Info) {
		tbl := e.vm.NewTable()
		e.vm.SetField(tbl, "group_id", lua.LNumber(info.GroupID))
		e.vm.SetField(tbl, "is_edge", lua.LBool(info.IsEdge))
		e.vm.SetField(tbl, "already_debris", lua.LBool(info.AlreadyDebris))
		e.vm.SetField(tbl, "x", lua.LNumber(v.Transform.Pos.X))
		e.vm.SetField(tbl, "y", lua.LNumber(v.Transform.Pos.Y))
		e.vm.SetField(tbl, "z", lua.LNumber(v.Transform.Pos.Z))
		e.vm.SetField(tbl, "size_x", lua.LNumber(v.Extent.X))
		e.vm.SetField(tbl, "size_y", lua.LNumber(v.Extent.Y))
		e.vm.SetField(tbl, "size_z", lua.LNumber(v.Extent.Z))

		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, tbl); err != nil {
			e.log.Warn("lua effect hook failed",
				zap.String("hook", name),
				zap.Error(err))
			return
		}

		if lv := e.vm.GetField(tbl, "already_debris"); lv != lua.LNil {
			if b, ok := lv.(lua.LBool); ok {
				v.AlreadyDebris = bool(b)
			}
		}
	}
}
