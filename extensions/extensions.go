package extensions

import (
	"fmt"
	"sync"

	"github.com/Shopify/go-lua"
	"github.com/Shopify/goluago/util"
	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
)

// registryExtensionID is the Lua registry key holding the ID of the
// extension that owns the state.
const registryExtensionID = "prospect_extension_id"

// Service is the view of the host application exposed to Lua scripts.
// It is satisfied by prospect.App.
type Service interface {
	WriteLog(level string, message string, options ...func(log *domain.Log) error) error
	GetHomeDir() (string, error)
	GetScope() (ScopeService, error)
	GetExtensionRepo() (domain.ExtensionRepository, error)
}

// ScopeService is the subset of the scope surface scripts may drive.
type ScopeService interface {
	AddRule(pattern, matchType string, exclude bool) error
	RemoveRule(pattern, matchType string, exclude bool) error
	MatchesString(input, matchType string) bool
	ClearRules()
}

// Runtime is one loaded extension: its stored record plus the Lua state its
// hooks execute in. States are not safe for concurrent use, so every call
// into the state holds Mu.
type Runtime struct {
	Data     *domain.Extension // The stored extension record
	LuaState *lua.State        // The script's interpreter state
	Mu       sync.Mutex        // Guards LuaState
}

// NewRuntime creates a Lua state for the extension, registers the prospect
// library, and runs the script's top level so its hook functions become
// globals.
func NewRuntime(ext *domain.Extension, service Service) (*Runtime, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)

	l.PushString(ext.ID.String())
	l.SetField(lua.RegistryIndex, registryExtensionID)

	registerScopeType(l)
	registerProspectLibrary(l, service)

	if err := lua.DoString(l, ext.LuaCode); err != nil {
		return nil, fmt.Errorf("running extension %s : %w", ext.Name, err)
	}

	return &Runtime{
		Data:     ext,
		LuaState: l,
	}, nil
}

// HasHook reports whether the script defines a global function of the given
// name.
func (rt *Runtime) HasHook(name string) bool {
	rt.Mu.Lock()
	defer rt.Mu.Unlock()
	rt.LuaState.Global(name)
	defined := rt.LuaState.IsFunction(-1)
	rt.LuaState.Pop(1)
	return defined
}

// FilterResult calls the script's filter_result hook with the search result
// and returns whether the result should be kept. A hook that returns nothing
// keeps the result.
func (rt *Runtime) FilterResult(result domain.SearchResult) (bool, error) {
	rt.Mu.Lock()
	defer rt.Mu.Unlock()
	l := rt.LuaState

	l.Global("filter_result")
	if !l.IsFunction(-1) {
		l.Pop(1)
		return true, fmt.Errorf("filter_result is not defined")
	}
	util.DeepPush(l, map[string]any{
		"url":     result.URL,
		"title":   result.Title,
		"snippet": result.Snippet,
		"domain":  result.Domain,
	})
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return true, fmt.Errorf("calling filter_result : %w", err)
	}
	keep := true
	if !l.IsNil(-1) {
		keep = l.ToBoolean(-1)
	}
	l.Pop(1)
	return keep, nil
}

// PatchProfile calls the script's patch_profile hook with a table view of
// the profile and merges the returned table back into it. A hook that
// returns nothing leaves the profile untouched.
func (rt *Runtime) PatchProfile(profile *domain.CompanyProfile) error {
	rt.Mu.Lock()
	defer rt.Mu.Unlock()
	l := rt.LuaState

	l.Global("patch_profile")
	if !l.IsFunction(-1) {
		l.Pop(1)
		return fmt.Errorf("patch_profile is not defined")
	}
	util.DeepPush(l, profileToTable(profile))
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return fmt.Errorf("calling patch_profile : %w", err)
	}
	defer l.Pop(1)

	if l.IsNil(-1) {
		return nil
	}
	if !l.IsTable(-1) {
		return fmt.Errorf("patch_profile returned %s, expected a table", lua.TypeNameOf(l, -1))
	}
	applyProfileTable(profile, pullProfileTable(l, l.Top()))
	return nil
}

// pullProfileTable reads the known profile keys out of the table at index.
// Raw accessors keep metamethods from running, so a hostile or buggy script
// cannot raise out of the unprotected read.
func pullProfileTable(l *lua.State, index int) map[string]any {
	table := make(map[string]any, len(profileTableKeys))
	for _, key := range profileTableKeys {
		l.PushString(key)
		l.RawGet(index)
		switch l.TypeOf(-1) {
		case lua.TypeString:
			if value, ok := l.ToString(-1); ok {
				table[key] = value
			}
		case lua.TypeTable:
			length := l.RawLength(-1)
			values := make([]any, 0, length)
			for i := 1; i <= length; i++ {
				l.RawGetInt(-1, i)
				if l.TypeOf(-1) == lua.TypeString {
					if value, ok := l.ToString(-1); ok {
						values = append(values, value)
					}
				}
				l.Pop(1)
			}
			table[key] = values
		}
		l.Pop(1)
	}
	return table
}

// profileTableKeys lists the patchable profile fields. The website is absent:
// it is pinned by the scraper.
var profileTableKeys = []string{
	"name", "description", "industry", "size", "location", "specialties",
	"services", "founded", "mission", "key_people", "goals", "stage",
	"budget_estimate",
}

// profileToTable renders the Lua-facing view of a profile. The field names
// match the extraction JSON so scripts see one shape everywhere.
func profileToTable(profile *domain.CompanyProfile) map[string]any {
	return map[string]any{
		"name":            profile.Name,
		"description":     profile.Description,
		"industry":        profile.Industry,
		"size":            profile.Size,
		"location":        profile.Location,
		"specialties":     profile.Specialties,
		"services":        profile.Services,
		"website":         profile.Website,
		"founded":         profile.Founded,
		"mission":         profile.Mission,
		"key_people":      profile.KeyPeople,
		"goals":           profile.Goals,
		"stage":           profile.Stage,
		"budget_estimate": profile.Budget,
	}
}

// applyProfileTable merges a hook's returned table into the profile. Only
// recognized keys with the right shape are applied; the website is pinned by
// the scraper and cannot be patched.
func applyProfileTable(profile *domain.CompanyProfile, table map[string]any) {
	setString := func(key string, target *string) {
		if value, ok := table[key].(string); ok {
			*target = value
		}
	}
	setStrings := func(key string, target *[]string) {
		raw, ok := table[key].([]any)
		if !ok {
			return
		}
		values := make([]string, 0, len(raw))
		for _, item := range raw {
			if value, ok := item.(string); ok {
				values = append(values, value)
			}
		}
		*target = values
	}

	setString("name", &profile.Name)
	setString("description", &profile.Description)
	setString("industry", &profile.Industry)
	setString("size", &profile.Size)
	setString("location", &profile.Location)
	setStrings("specialties", &profile.Specialties)
	setStrings("services", &profile.Services)
	setString("founded", &profile.Founded)
	setString("mission", &profile.Mission)
	setStrings("key_people", &profile.KeyPeople)
	setString("goals", &profile.Goals)
	setString("stage", &profile.Stage)
	setString("budget_estimate", &profile.Budget)
}

// getExtensionID reads the owning extension's ID out of the Lua registry.
func getExtensionID(l *lua.State) uuid.UUID {
	l.Field(lua.RegistryIndex, registryExtensionID)
	idString, ok := l.ToString(-1)
	l.Pop(1)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(idString)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// RegisterType creates a new metatable in the Lua state and associates it with a name.
// It registers a set of functions as methods for the type and a `__tostring` metamethod.
// This is a generic helper for exposing Go types to Lua.
func RegisterType(l *lua.State, name string, functions map[string]lua.Function, toString func(l *lua.State) int) {
	lua.NewMetaTable(l, name)
	l.PushGoFunction(FunctionIndex(functions))
	l.SetField(-2, "__index")
	l.PushGoFunction(toString)
	l.SetField(-2, "__tostring")
	l.Pop(1)
}

// FunctionIndex returns a Lua function that acts as an `__index` metamethod.
// It looks up a field name in the provided functions map and pushes the corresponding
// function onto the stack if found.
func FunctionIndex(functions map[string]lua.Function) func(l *lua.State) int {
	return func(l *lua.State) int {
		field := lua.CheckString(l, 2)
		if function, ok := functions[field]; ok {
			l.PushGoFunction(function)
		} else {
			l.PushNil()
		}
		return 1
	}
}
