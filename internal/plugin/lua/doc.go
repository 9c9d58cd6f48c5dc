// Package lua runs directory plugins as Lua scripts and adapts them to
// the plugin capability contracts.
//
// A Lua plugin is a directory under the plugins directory holding an
// init.lua (or a plugin.json manifest naming another entry script).
// The script communicates with the host through a handful of globals,
// all optional:
//
//	-- settings is injected before the script runs: the save data
//	-- persisted by the previous run.
//
//	function callbacks()
//	    return {
//	        science_starting = { priority = 5, fn = function() ... end },
//	        shutdown_requested = function() ... end,  -- default priority
//	    }
//	end
//
//	function menu()
//	    return {
//	        name = "My Plugin",
//	        items = {
//	            { name = "Do thing", icon = "gear", action = function() ... end },
//	        },
//	    }
//	end
//
//	function setup_complete() ... end
//	function save_data() return { key = "value" } end
//	function close() ... end
//
// Scripts run in a restricted state: only the base, table, string, and
// math libraries are open, and the code-loading globals are removed.
// Settings and notification classes are a Go-side contract; Lua
// plugins contribute menus and callbacks only.
package lua
