// Package shield lets code running inside a cordoned process check a
// capability before using it and fall back gracefully when it is denied.
//
// The enforcement status is fixed when the process starts. It is read once
// from the environment cordon prepares for its child (see Ambient) and can be
// overridden per call tree with WithStatus, which is how tests inject a
// status. A process started without cordon has no enforcement engine, so
// every query succeeds:
//
//	body, err := shield.Guard(ctx, shield.ScopeFSRead, path,
//		func(context.Context) ([]byte, error) { return os.ReadFile(path) },
//		nil,
//	)
//
// Descendants of the runtime inherit the environment but not the runtime's
// permission engine, so only the process cordon launched directly sees the
// granted status; deeper descendants see Unrestricted.
//
// The shield never grants or revokes anything. Denials are logged and
// answered with the fallback; errors from a permitted operation are returned
// unchanged.
package shield
