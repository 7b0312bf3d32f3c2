package project

import (
	"time"

	"speckit/internal/artifact"
)

// RootFolderID is the output tree's top folder. Generated documents are
// filed in subfolders of it.
const RootFolderID = "root"

// DefaultName is the title of a session that has no messages yet.
const DefaultName = "新对话 (New Chat)"

const welcomeTips = `### 💡 如何描述需求
建议按 **"角色 + 场景 + 目标"** 的方式描述，并尽量注明 **平台**。

- **简单示例**：
  "做一个扫码入库功能"

- **完整示例**：
  "为**仓库管理员 (角色)** 开发一个 **App 端 (平台)** 的扫码入库功能，在**货物到达仓库时 (场景)** 快速完成登记，减少人工录入错误 **(目标)**。"

---
也可以直接输入指令，例如 "技术方案"、"任务分解"、"检查"。`

// DefaultFiles returns a fresh output tree with only the root folder.
func DefaultFiles() artifact.Tree {
	root := artifact.Folder(RootFolderID, "specs")
	root.IsOpen = true
	return artifact.Tree{root}
}

// WelcomeMessages returns the greeting shown in a new session.
func WelcomeMessages(now time.Time) []ChatMessage {
	ts := now.UnixMilli()
	return []ChatMessage{
		{
			ID:        "welcome-1",
			Author:    AuthorBot,
			Content:   "👋 欢迎使用 SpecKit 需求助手！请描述您想开发的功能，我会通过几轮澄清帮您生成规范的需求文档。",
			Timestamp: ts,
		},
		{
			ID:        "welcome-tips",
			Author:    AuthorBot,
			Content:   welcomeTips,
			Timestamp: ts + 100,
		},
	}
}

// New returns the initial state of a session.
func New(sessionID string, now time.Time) State {
	return State{
		SessionID:      sessionID,
		Name:           DefaultName,
		Files:          DefaultFiles(),
		ChatHistory:    WelcomeMessages(now),
		CurrentStep:    StepInit,
		CompletedSteps: []Step{},
	}
}
