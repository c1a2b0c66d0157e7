package extensions

import (
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/Shopify/goluago/util"
	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
)

// registerProspectLibrary registers the `prospect` global library and its
// sub-libraries into the Lua state. This is the main entry point for exposing
// the application's functionality to Lua scripts.
func registerProspectLibrary(l *lua.State, service Service) {
	funcs := []lua.RegistryFunction{
		// log writes a message to the application's log.
		//
		// @param message string The message to log.
		// @param level string (optional) The log level (e.g., "INFO", "WARN", "ERROR").
		// Defaults to "INFO".
		{Name: "log", Function: func(l *lua.State) int {
			message := lua.CheckString(l, 2)
			level := lua.OptString(l, 3, "INFO")
			if extID := getExtensionID(l); extID != uuid.Nil {
				err := service.WriteLog(level, message, domain.LogWithContext(map[string]any{"extension_id": extID.String()}))
				if err != nil {
					lua.Errorf(l, fmt.Sprintf("writing log : %s", err.Error()))
					return 0
				}
			} else {
				err := service.WriteLog(level, message)
				if err != nil {
					lua.Errorf(l, fmt.Sprintf("writing log : %s", err.Error()))
					return 0
				}
			}
			return 0
		}},
		// home returns the path to the application's home directory.
		//
		// @return string The home directory path.
		{Name: "home", Function: func(l *lua.State) int {
			home, err := service.GetHomeDir()
			if err != nil {
				l.PushString("")
				return 1
			}
			l.PushString(home)
			return 1
		}},
		// scope returns the application's search result scope.
		//
		// @return Scope The scope object.
		{Name: "scope", Function: func(l *lua.State) int {
			scope, err := service.GetScope()
			if err != nil {
				lua.Errorf(l, fmt.Sprintf("getting scope : %s", err.Error()))
				return 0
			}
			l.PushUserData(scope)
			lua.SetMetaTableNamed(l, "scope")
			return 1
		}},
		// uuid generates a new UUIDv7 and returns it as a string.
		//
		// @return string The new UUID.
		{Name: "uuid", Function: func(l *lua.State) int {
			id, err := uuid.NewV7()
			if err != nil {
				lua.Errorf(l, "generating uuid: %s", err.Error())
				return 0
			}
			l.PushString(id.String())
			return 1
		}},
		// timestamp returns the current time as a Unix timestamp in milliseconds.
		//
		// @return number The current timestamp.
		{Name: "timestamp", Function: func(l *lua.State) int {
			l.PushNumber(float64(time.Now().UnixMilli()))
			return 1
		}},
	}

	lua.NewLibrary(l, funcs)
	l.SetGlobal("prospect")

	registerSettingsLibrary(l, service)
}

// registerSettingsLibrary registers the `prospect.settings` library into the
// Lua state. It gives scripts access to their persisted settings table.
func registerSettingsLibrary(l *lua.State, service Service) {
	l.Global("prospect")

	if l.IsNil(-1) {
		l.Pop(1)
		return
	}

	lua.NewLibrary(l, settingsLibrary(service))

	l.SetField(-2, "settings")

	l.Pop(1)
}

// settingsLibrary returns a list of Lua functions for managing extension
// settings. These functions are available under the `prospect.settings`
// table in Lua scripts.
func settingsLibrary(service Service) []lua.RegistryFunction {
	return []lua.RegistryFunction{
		// get returns the settings for the current extension.
		//
		// @return table The extension's settings as a Lua table.
		{Name: "get", Function: func(l *lua.State) int {
			repo, err := service.GetExtensionRepo()
			if err != nil {
				lua.Errorf(l, "getting extension repo: %s", err.Error())
				return 0
			}

			extID := getExtensionID(l)
			if extID == uuid.Nil {
				lua.Errorf(l, "extension ID is nil")
				return 0
			}

			settings, err := repo.GetExtensionSettings(extID)
			if err != nil {
				lua.Errorf(l, "getting extension %s settings: %s", extID, err.Error())
				return 0
			}

			util.DeepPush(l, settings)
			return 1
		}},
		// set updates the settings for the current extension.
		//
		// @param settings table The new settings for the extension.
		// @return boolean True if the settings were updated successfully.
		{Name: "set", Function: func(l *lua.State) int {
			repo, err := service.GetExtensionRepo()
			if err != nil {
				lua.Errorf(l, "getting extension repo: %s", err.Error())
				return 0
			}

			extID := getExtensionID(l)
			if extID == uuid.Nil {
				lua.Errorf(l, "extension ID is nil")
				return 0
			}

			raw, err := util.PullTable(l, 2)
			if err != nil {
				lua.Errorf(l, "reading settings table: %s", err.Error())
				return 0
			}
			settings, ok := raw.(map[string]any)
			if !ok {
				lua.ArgumentError(l, 2, "expected a settings table")
				return 0
			}

			if err := repo.SetExtensionSettings(extID, settings); err != nil {
				lua.Errorf(l, "setting extension %s settings: %s", extID, err.Error())
				return 0
			}
			l.PushBoolean(true)
			return 1
		}},
	}
}

// registerScopeType registers the scope type and its methods with the Lua
// state. This allows Lua scripts to interact with the search scope, adding,
// removing, and checking rules.
func registerScopeType(l *lua.State) {
	funcs := map[string]lua.Function{
		"add_rule": func(l *lua.State) int {
			scope, ok := l.ToUserData(1).(ScopeService)
			if !ok {
				l.PushString("Invalid scope")
				return 1
			}

			ruleStr, _ := l.ToString(2)
			matchType, _ := l.ToString(3)
			isExclude := strings.HasPrefix(ruleStr, "-")

			err := scope.AddRule(ruleStr, matchType, isExclude)
			if err != nil {
				l.PushString(fmt.Sprintf("Error adding rule: %v", err))
				return 1
			}

			l.PushBoolean(true)
			return 1
		},
		"remove_rule": func(l *lua.State) int {
			scope, ok := l.ToUserData(1).(ScopeService)
			if !ok {
				l.PushString("Invalid scope")
				return 1
			}

			ruleStr, _ := l.ToString(2)
			matchType, _ := l.ToString(3)
			isExclude := strings.HasPrefix(ruleStr, "-")

			err := scope.RemoveRule(ruleStr, matchType, isExclude)
			if err != nil {
				l.PushString(fmt.Sprintf("Error removing rule: %v", err))
				return 1
			}

			l.PushBoolean(true)
			return 1
		},
		"matches_string": func(l *lua.State) int {
			scope, ok := l.ToUserData(1).(ScopeService)
			if !ok {
				l.PushString("Invalid scope")
				return 1
			}
			input, ok := l.ToString(2)
			if !ok {
				l.PushString("Invalid input")
				return 1
			}
			matchType, ok := l.ToString(3)
			if !ok {
				l.PushString("Invalid match type")
				return 1
			}
			result := scope.MatchesString(input, matchType)
			l.PushBoolean(result)
			return 1
		},
		"clear_rules": func(l *lua.State) int {
			scope, ok := l.ToUserData(1).(ScopeService)
			if !ok {
				l.PushString("Invalid scope")
				return 1
			}
			scope.ClearRules()
			l.PushBoolean(true)
			return 1
		},
	}

	RegisterType(l, "scope", funcs, func(l *lua.State) int {
		if _, ok := l.ToUserData(1).(ScopeService); !ok {
			l.PushString("Invalid Scope")
			return 1
		}
		l.PushString("Scope")
		return 1
	})
}
