package core

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestHubJoinBroadcastAndAlert(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	alice := activeSession(1, 10, "alice")
	bob := activeSession(2, 10, "bob")
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	// Alice was registered first, so she sees Bob come online.
	onlineEv := mustEvent(t, alice.Events, EventUserOnline)
	if onlineEv.UserID != 2 {
		t.Fatalf("unexpected online event: %+v", onlineEv)
	}

	alice.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	bob.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	// Joins travel through separate per-session pumps; let them land.
	time.Sleep(50 * time.Millisecond)

	alice.Commands <- &Command{Kind: CommandSendMessage, Chat: "chat-1", Content: "hi", Receiver: 2}

	msgEv := mustEvent(t, bob.Events, EventNewMessage)
	if msgEv.Message == nil || msgEv.Message.Content != "hi" || msgEv.Message.Chat != "chat-1" {
		t.Fatalf("unexpected message event: %+v", msgEv)
	}
	if msgEv.Message.Sender.ID != 1 || msgEv.Message.Sender.Name != "alice" || msgEv.Message.Sender.PublicKey != "pk-alice" {
		t.Fatalf("expected full sender snapshot, got %+v", msgEv.Message.Sender)
	}
	if msgEv.Message.CreatedAt.IsZero() {
		t.Fatal("expected broadcast-time created_at")
	}

	alertEv := mustEvent(t, bob.Events, EventMessageAlert)
	if alertEv.Chat != "chat-1" {
		t.Fatalf("unexpected alert event: %+v", alertEv)
	}

	// The sender is subscribed too, so she receives her own broadcast.
	selfEv := mustEvent(t, alice.Events, EventNewMessage)
	if selfEv.Message.Content != "hi" {
		t.Fatalf("sender did not receive own broadcast: %+v", selfEv)
	}
}

func TestDoubleJoinNoDuplicateDelivery(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	alice := activeSession(1, 10, "alice")
	bob := activeSession(2, 10, "bob")
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	bob.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	bob.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1", "chat-1"}}
	alice.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	time.Sleep(50 * time.Millisecond)

	alice.Commands <- &Command{Kind: CommandSendMessage, Chat: "chat-1", Content: "once"}

	first := mustEvent(t, bob.Events, EventNewMessage)
	if first.Message.Content != "once" {
		t.Fatalf("unexpected message: %+v", first)
	}
	// The next event must be the alert, not a duplicate broadcast.
	mustEvent(t, bob.Events, EventMessageAlert)
	mustNoEvent(t, bob.Events, EventNewMessage)
}

func TestOrderedDeliveryPerConnection(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	sender := activeSession(1, 10, "sender")
	observer := activeSession(2, 10, "observer")
	hub.RegisterSession(sender)
	hub.RegisterSession(observer)

	sender.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	observer.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	time.Sleep(50 * time.Millisecond)

	const n = 5
	for i := 0; i < n; i++ {
		sender.Commands <- &Command{Kind: CommandSendMessage, Chat: "chat-1", Content: fmt.Sprintf("m%d", i)}
	}

	for i := 0; i < n; i++ {
		ev := mustEvent(t, observer.Events, EventNewMessage)
		if want := fmt.Sprintf("m%d", i); ev.Message.Content != want {
			t.Fatalf("out of order: got %q, want %q", ev.Message.Content, want)
		}
	}
}

func TestPresenceLastWriterWins(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	first := activeSession(1, 10, "alice")
	hub.RegisterSession(first)

	second := activeSession(1, 10, "alice")
	hub.RegisterSession(second)

	// The superseded session is told why it is going away.
	mustEvent(t, first.Events, EventSessionReplaced)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ids, err := hub.OnlineUsers(ctx, 10)
	if err != nil {
		t.Fatalf("OnlineUsers failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("expected single presence entry for user 1, got %v", ids)
	}

	// A stale disconnect from the evicted session must not remove the
	// newer session's entry.
	hub.UnregisterSession(first)
	time.Sleep(50 * time.Millisecond)

	ids, err = hub.OnlineUsers(ctx, 10)
	if err != nil {
		t.Fatalf("OnlineUsers failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("stale disconnect corrupted presence: %v", ids)
	}
}

func TestMultiSessionAllowedWhenConfigured(t *testing.T) {
	opts := DefaultHubOptions()
	opts.SingleSessionPerUser = false
	hub := newTestHub(t, nil, opts)

	first := activeSession(1, 10, "alice")
	second := activeSession(1, 10, "alice")
	peer := activeSession(2, 10, "bob")
	hub.RegisterSession(first)
	hub.RegisterSession(second)
	hub.RegisterSession(peer)

	// The old transport is left alone.
	mustNoEvent(t, first.Events, EventSessionReplaced)

	first.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	time.Sleep(50 * time.Millisecond)
	peer.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	peer.Commands <- &Command{Kind: CommandSendMessage, Chat: "chat-1", Content: "still here"}

	ev := mustEvent(t, first.Events, EventNewMessage)
	if ev.Message.Content != "still here" {
		t.Fatalf("superseded session stopped receiving: %+v", ev)
	}
}

func TestDisconnectCleanup(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	alice := activeSession(1, 10, "alice")
	bob := activeSession(2, 10, "bob")
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	alice.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	bob.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}

	hub.UnregisterSession(alice)

	offEv := mustEvent(t, bob.Events, EventUserOffline)
	if offEv.UserID != 1 {
		t.Fatalf("unexpected offline event: %+v", offEv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ids, err := hub.OnlineUsers(ctx, 10)
	if err != nil {
		t.Fatalf("OnlineUsers failed: %v", err)
	}
	for _, id := range ids {
		if id == 1 {
			t.Fatalf("disconnected user still in snapshot: %v", ids)
		}
	}
}

func TestTypingRelayExcludesOriginator(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	alice := activeSession(1, 10, "alice")
	bob := activeSession(2, 10, "bob")
	carol := activeSession(3, 10, "carol")
	for _, s := range []*Session{alice, bob, carol} {
		hub.RegisterSession(s)
		s.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	}
	time.Sleep(50 * time.Millisecond)

	alice.Commands <- &Command{
		Kind:   CommandStartTyping,
		Typing: &TypingInfo{Chat: "chat-1", SenderID: 1, SenderName: "alice"},
	}

	for _, peer := range []*Session{bob, carol} {
		ev := mustEvent(t, peer.Events, EventTypingStarted)
		if ev.Typing == nil || ev.Typing.SenderName != "alice" {
			t.Fatalf("unexpected typing event: %+v", ev)
		}
	}
	mustNoEvent(t, alice.Events, EventTypingStarted)
}

func TestPresenceBroadcastTenantScoped(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	alice := activeSession(1, 10, "alice")
	other := activeSession(2, 20, "other")
	hub.RegisterSession(alice)
	hub.RegisterSession(other)

	// Alice must not observe a user of another tenant coming online.
	mustNoEvent(t, alice.Events, EventUserOnline)

	hub.UnregisterSession(other)
	mustNoEvent(t, alice.Events, EventUserOffline)
}

func TestJoinRefusedAcrossTenants(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	alice := activeSession(1, 10, "alice")
	intruder := activeSession(2, 20, "intruder")
	hub.RegisterSession(alice)
	hub.RegisterSession(intruder)

	// Alice's join must create the room before the intruder tries it.
	alice.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	time.Sleep(50 * time.Millisecond)
	intruder.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}

	errEv := mustEvent(t, intruder.Events, EventError)
	if errEv.Error == nil || errEv.Error.Code != ErrCodeTenantForbidden {
		t.Fatalf("expected tenant_forbidden, got %+v", errEv)
	}

	alice.Commands <- &Command{Kind: CommandSendMessage, Chat: "chat-1", Content: "private"}
	mustEvent(t, alice.Events, EventNewMessage)
	mustNoEvent(t, intruder.Events, EventNewMessage)
}

func TestGetOnlineUsersTenantScoped(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	alice := activeSession(1, 10, "alice")
	bob := activeSession(2, 10, "bob")
	other := activeSession(3, 20, "other")
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)
	hub.RegisterSession(other)

	alice.Commands <- &Command{Kind: CommandGetOnlineUsers}

	ev := mustEvent(t, alice.Events, EventOnlineUsers)
	if len(ev.UserIDs) != 2 || ev.UserIDs[0] != 1 || ev.UserIDs[1] != 2 {
		t.Fatalf("expected tenant-scoped snapshot [1 2], got %v", ev.UserIDs)
	}
	// Snapshot goes to the caller only.
	mustNoEvent(t, bob.Events, EventOnlineUsers)
}

func TestUnregisterDuringPersistDoesNotPanic(t *testing.T) {
	st := newBlockingStore()
	opts := DefaultHubOptions()
	opts.Fanout.BroadcastOnStoreFailure = false
	opts.Fanout.PersistRetries = 0
	hub := newTestHub(t, st, opts)

	sess := activeSession(1, 10, "alice")
	hub.RegisterSession(sess)
	sess.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	sess.Commands <- &Command{Kind: CommandSendMessage, Chat: "chat-1", Content: "hi"}

	// The persist is in flight; tear the session down underneath it.
	<-st.entered
	hub.UnregisterSession(sess)
	time.Sleep(50 * time.Millisecond)
	close(st.release)

	// The failed persist reports back to the torn-down session instead
	// of crashing the process.
	ev := mustEvent(t, sess.Events, EventError)
	if ev.Error == nil {
		t.Fatalf("expected error event, got %+v", ev)
	}
}

func TestQueuedJoinAfterUnregisterIgnored(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	alice := activeSession(1, 10, "alice")
	bob := activeSession(2, 10, "bob")
	hub.RegisterSession(alice)
	hub.RegisterSession(bob)

	bob.Commands <- &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}
	time.Sleep(50 * time.Millisecond)

	hub.UnregisterSession(alice)
	// A join that was already queued behind the unregister must not
	// re-insert the torn-down session into the room table.
	hub.ops <- hubOp{kind: opCommand, sess: alice, cmd: &Command{Kind: CommandJoinRooms, Rooms: []string{"chat-1"}}}
	time.Sleep(50 * time.Millisecond)

	bob.Commands <- &Command{Kind: CommandSendMessage, Chat: "chat-1", Content: "after"}

	ev := mustEvent(t, bob.Events, EventNewMessage)
	if ev.Message.Content != "after" {
		t.Fatalf("unexpected message: %+v", ev)
	}
	mustNoEvent(t, alice.Events, EventNewMessage)
}

func TestCommandBeforeActiveRejected(t *testing.T) {
	hub := newTestHub(t, nil, DefaultHubOptions())

	sess := activeSession(1, 10, "alice")
	sess.setState(StateAuthenticating)

	hub.dispatch(context.Background(), sess, &Command{Kind: CommandSendMessage, Chat: "chat-1", Content: "early"})

	ev := mustEvent(t, sess.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotActive {
		t.Fatalf("expected not_active error, got %+v", ev)
	}
}
