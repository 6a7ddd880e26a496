package bot

import (
	"context"
	"fmt"
)

const savingFailed = "Something went wrong while saving. Please try again."

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to YouTube Notify Bot!

Get a message here whenever a subscribed YouTube channel publishes a new video.

Quick start:
1. /target — deliver notifications to this chat
2. /subscribe <channel> — watch a YouTube channel
3. /list — see what you are subscribed to

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Subscriptions:
/subscribe <channel> — subscribe to a YouTube channel (name, @handle, or URL)
/unsubscribe <channel> — unsubscribe from a channel
/list — list subscribed channels
/clear — remove all subscriptions

Delivery:
/target — send notifications to this chat (one target per chat)
/cleartarget — stop sending notifications

Other:
/ping — check if I'm alive`)
}

func (b *Bot) handleTarget(chatID int64) {
	sub := subscriberID(chatID)
	set, err := b.store.SetTarget(sub, subscriberID(chatID))
	if err != nil {
		b.log.Error("set target", "subscriber", sub, "error", err)
		b.reply(chatID, savingFailed)
		return
	}
	if !set {
		b.reply(chatID, "A target chat is already set. Use /cleartarget first.")
		return
	}
	b.reply(chatID, "Targeting this chat for updates.")
}

func (b *Bot) handleClearTarget(chatID int64) {
	sub := subscriberID(chatID)
	cleared, err := b.store.ClearTarget(sub)
	if err != nil {
		b.log.Error("clear target", "subscriber", sub, "error", err)
		b.reply(chatID, savingFailed)
		return
	}
	if !cleared {
		b.reply(chatID, "No target chat yet.")
		return
	}
	b.reply(chatID, "Successfully cleared target chat.")
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /subscribe <channel name, @handle, or URL>")
		return
	}

	channelID, err := b.resolver.Resolve(ctx, args)
	if err != nil {
		b.log.Debug("resolve channel", "query", args, "error", err)
		b.reply(chatID, fmt.Sprintf("Couldn't find %s.", args))
		return
	}

	sub := subscriberID(chatID)
	added, err := b.store.AddSubscription(sub, channelID)
	if err != nil {
		b.log.Error("add subscription", "subscriber", sub, "feed", channelID, "error", err)
		b.reply(chatID, savingFailed)
		return
	}
	if !added {
		b.reply(chatID, fmt.Sprintf("Already subscribed to %s.", args))
		return
	}
	b.reply(chatID, fmt.Sprintf("Successfully subscribed to %s.", args))
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /unsubscribe <channel name, @handle, or URL>")
		return
	}

	channelID, err := b.resolver.Resolve(ctx, args)
	if err != nil {
		b.log.Debug("resolve channel", "query", args, "error", err)
		b.reply(chatID, fmt.Sprintf("Couldn't find %s.", args))
		return
	}

	sub := subscriberID(chatID)
	removed, err := b.store.RemoveSubscription(sub, channelID)
	if err != nil {
		b.log.Error("remove subscription", "subscriber", sub, "feed", channelID, "error", err)
		b.reply(chatID, savingFailed)
		return
	}
	if !removed {
		b.reply(chatID, fmt.Sprintf("Not subscribed to %s.", args))
		return
	}
	b.reply(chatID, fmt.Sprintf("Successfully unsubscribed from %s.", args))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	channelIDs := b.store.ListSubscriptions(subscriberID(chatID))
	if len(channelIDs) == 0 {
		b.reply(chatID, "No subscriptions yet.")
		return
	}

	// Display titles are fetched live; a channel whose feed cannot be
	// read right now shows up as its raw ID.
	titles := make([]string, 0, len(channelIDs))
	for _, id := range channelIDs {
		title := id
		if snap, err := b.fetcher.Fetch(ctx, id); err == nil && snap.Title != "" {
			title = snap.Title
		}
		titles = append(titles, title)
	}

	b.reply(chatID, FormatSubscriptionList(titles))
}

func (b *Bot) handleClear(chatID int64) {
	sub := subscriberID(chatID)
	cleared, err := b.store.ClearSubscriptions(sub)
	if err != nil {
		b.log.Error("clear subscriptions", "subscriber", sub, "error", err)
		b.reply(chatID, savingFailed)
		return
	}
	if !cleared {
		b.reply(chatID, "No subscriptions yet.")
		return
	}
	b.reply(chatID, "Successfully cleared subscriptions.")
}
