package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/vovakirdan/modchat-server/internal/core"
	"github.com/vovakirdan/modchat-server/internal/proto"
)

// inboundToCommand maps a decoded envelope to a core command. A non-nil
// proto.Error means the payload was rejected and the connection should be
// answered but kept alive.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeLogin:
		var login proto.LoginData
		if err := json.Unmarshal(inbound.Data, &login); err != nil {
			return nil, malformed(err)
		}
		username := strings.TrimSpace(login.Username)
		if username == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Message: "username is required"}
		}
		return &core.Command{Kind: core.CommandLogin, Username: username}, nil
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, malformed(err)
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Message: "text is required"}
		}
		return &core.Command{Kind: core.CommandSendMessage, Text: msg.Text, SentAt: msg.Timestamp}, nil
	case proto.InboundTypeVerifyAdmin:
		var verify proto.VerifyAdminData
		if err := json.Unmarshal(inbound.Data, &verify); err != nil {
			return nil, malformed(err)
		}
		return &core.Command{Kind: core.CommandVerifyAdmin, Secret: verify.Password}, nil
	case proto.InboundTypeBan:
		var ban proto.BanData
		if err := json.Unmarshal(inbound.Data, &ban); err != nil {
			return nil, malformed(err)
		}
		return &core.Command{Kind: core.CommandBan, Target: strings.TrimSpace(ban.Username)}, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Message: "unknown message type"}
	}
}

func malformed(err error) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Message: "malformed payload: " + err.Error()}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventLoginResult:
		result := proto.LoginResult{Success: event.Success, IsAdmin: event.IsAdmin}
		if event.Error != nil {
			result.Message = event.Error.Message
		}
		return proto.Outbound{Type: proto.OutboundTypeLogin, Data: result}
	case core.EventChatMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeMessage,
			Data: proto.EventMessage{
				Username:          event.Message.From,
				IsAdmin:           event.Message.FromAdmin,
				Text:              event.Message.Text,
				SentTimestamp:     event.Message.SentAt,
				ReceivedTimestamp: event.Message.ReceivedAt.Format(time.RFC3339Nano),
			},
		}
	case core.EventNotification:
		return proto.Outbound{
			Type: proto.OutboundTypeNotification,
			Data: proto.Notification{
				Message:   event.Text,
				Timestamp: event.At.Format(time.RFC3339Nano),
			},
		}
	case core.EventUserList:
		users := make([]proto.UserEntry, 0, len(event.Users))
		for _, u := range event.Users {
			users = append(users, proto.UserEntry{Username: u.Username, IsAdmin: u.IsAdmin})
		}
		return proto.Outbound{Type: proto.OutboundTypeUserList, Data: proto.UserList{Users: users}}
	case core.EventAdminVerified:
		result := proto.AdminVerified{Success: event.Success}
		if event.Error != nil {
			result.Message = event.Error.Message
		}
		return proto.Outbound{Type: proto.OutboundTypeAdminVerified, Data: result}
	case core.EventBanNotice:
		return proto.Outbound{Type: proto.OutboundTypeBanned, Data: proto.BannedNotice{Message: event.Text}}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Message: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Message: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Message: "unknown event"}}
	}
}
