// Package agora is the client SDK for the agora forum backend.
//
// # Model
//
// Every view follows the same pattern: fetch the current collection over
// REST, join the matching broadcast room over one shared websocket, and
// merge change events into the collection until the view unmounts.
//
//	client, err := agora.NewClient(agora.ClientConfig{
//		BaseURL: "https://forum.example.com",
//		Token:   token,
//	})
//	if err != nil {
//		// handle
//	}
//
//	sub := client.SubscribePosts()
//	if err := sub.Start(ctx); err != nil {
//		// degraded; render sub.Collection() and offer a retry
//	}
//	defer sub.Teardown(ctx)
//
//	posts := sub.Collection().Items()
//
// # Rooms
//
// Post mutations broadcast to the global feed room, comment mutations to
// their post's room, reply mutations to their comment's room. A
// subscription joins exactly one room and ignores events for any other.
//
// # Delivery
//
// Delivery is best effort and at-most-once. Merges are idempotent and
// tolerate duplicates, late tombstoned updates and unknown ids, so a missed
// event costs staleness, never corruption. A lost connection degrades the
// subscription in place; Retry refetches and rejoins.
package agora
