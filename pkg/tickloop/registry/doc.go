// Package registry maps handler names used in configuration files to
// handler factories.
//
// Registry is a generic thread-safe map; Handlers specializes it for
// tickloop handlers and registers a whole config.Settings task list:
//
//	handlers := registry.Builtins(logger)
//	handlers.Register("uart", newUARTHandler)
//
//	refs, err := handlers.RegisterTasks(sched, settings)
package registry
