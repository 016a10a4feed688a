// Package interceptors provides ready-made aspect interceptors.
//
// Every type here implements aspect.Interceptor and is bound like any
// other interceptor:
//
//	catalog := aspect.NewCatalog()
//	aspect.Intercept[Store](catalog, aspect.AllMembers, 0, interceptors.NewLogging(logger))
//	aspect.Intercept[Store](catalog, "Get", 10, interceptors.NewRetry(3))
//	aspect.Intercept[Store](catalog, "Get", 20, interceptors.NewCache(interceptors.NewMemoryStore(1024), json.New()))
//
// Interceptors that read arguments (Cache, Guard with arguments, Logging and
// Events when configured to record arguments) implement
// aspect.ArgumentCapturer, so binding them turns on capture for the member.
//
// Context-aware interceptors (Timeout, Tracing, blocking RateLimit) replace
// the invocation context; members observe the new context only through a
// leading context.Context parameter or, for deferred members, through the
// await of their completion.
package interceptors
