// Package registry owns the catalog of installed game packages and the
// lifecycle that moves a package from selected to ready for use.
//
// Components:
//   - Manager: catalog, active selection, fetch/update/delete, paged loading
//   - Hooks: refresh callbacks run after a healthy activation
//   - Seeder: populates an empty games root with the default set
//
// Concurrency:
//
// All Manager state is owned by a scheduler.Loop. Exported methods post work
// to the loop and return immediately; the network fetch runs off the loop and
// posts its continuation back. Content pages are loaded one per loop turn, so
// other operations interleave only between pages or around a fetch.
//
// Failures are recorded on the affected Record and surfaced through the modal
// queue, one message per failure.
//
// Example Usage:
//
//	loop := scheduler.New(log)
//	m := registry.NewManager(registry.Options{Loop: loop, Storage: disk, ...})
//	go loop.Run(ctx)
//	m.Start()
//	m.Resolve("Mahjong@https%3A%2F%2Fexample.com%2Fmahjong.json")
package registry
