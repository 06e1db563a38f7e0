package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.telegram.org"

// Chat Telegram 会话信息
type Chat struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type chatHolder struct {
	Chat Chat `json:"chat"`
}

// Update Bot getUpdates 返回的一条更新
type Update struct {
	Message      *chatHolder `json:"message"`
	EditedMsg    *chatHolder `json:"edited_message"`
	ChannelPost  *chatHolder `json:"channel_post"`
	MyChatMember *chatHolder `json:"my_chat_member"`
	ChatMember   *chatHolder `json:"chat_member"`
}

// ChatOf 取更新关联的会话，找不到返回 nil
func (u *Update) ChatOf() *Chat {
	for _, h := range []*chatHolder{u.Message, u.ChannelPost, u.MyChatMember, u.ChatMember, u.EditedMsg} {
		if h != nil {
			return &h.Chat
		}
	}
	return nil
}

type apiResponse struct {
	OK          bool     `json:"ok"`
	Description string   `json:"description"`
	Result      []Update `json:"result"`
}

// Client Telegram Bot API 客户端
type Client struct {
	http *resty.Client
}

func NewClient() *Client {
	return NewClientWithBaseURL(defaultBaseURL)
}

func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
	}
}

// SendMessage 向指定会话发送文本消息
func (c *Client) SendMessage(ctx context.Context, token, chatID, text string) error {
	var result apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"chat_id": chatID, "text": text}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/bot%s/sendMessage", token))
	if err != nil {
		return err
	}
	if !resp.IsSuccess() || !result.OK {
		if result.Description != "" {
			return fmt.Errorf("telegram 发送失败: %s", result.Description)
		}
		return fmt.Errorf("telegram 发送失败: HTTP %d", resp.StatusCode())
	}
	return nil
}

// GetUpdates 拉取 Bot 收到的更新，用于同步白名单
func (c *Client) GetUpdates(ctx context.Context, token string) ([]Update, error) {
	var result apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get(fmt.Sprintf("/bot%s/getUpdates", token))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() || !result.OK {
		if result.Description != "" {
			return nil, fmt.Errorf("telegram getUpdates 失败: %s", result.Description)
		}
		return nil, fmt.Errorf("telegram getUpdates 失败: HTTP %d", resp.StatusCode())
	}
	return result.Result, nil
}
