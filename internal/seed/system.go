package seed

import "speckit/internal/artifact"

// Well-known node ids of the system library.
const (
	RootID      = "sys-root"
	ChartersID  = "sys-charters"
	CommandsID  = "sys-commands"
	StandardsID = "sys-standards"
	TemplatesID = "sys-templates"

	TechTemplatesID     = "tpl-tech"
	AutotestTemplatesID = "tpl-auto"

	StdSpecID      = "std-spec"
	StdKBID        = "std-kb"
	StdMarkdownID  = "std-md"
	StdTestID      = "std-test"
	StdTestTableID = "std-test-table"

	CmdAnalyzeID   = "cmd-analyze"
	CmdAutotestID  = "cmd-autotest"
	CmdChecklistID = "cmd-checklist"
	CmdSpecifyID   = "cmd-specify"
	CmdTasksID     = "cmd-tasks"
	CmdTechID      = "cmd-tech"
)

// SpecTemplate is the skeleton of the requirement specification. Sections
// 4-6 stay pending until the spec is completed.
const SpecTemplate = `# 需求规格说明书

## 1. 概述
- 背景与目标
- 目标用户

## 2. 功能清单
| 编号 | 功能 | 描述 | 优先级 |
| --- | --- | --- | --- |

## 3. 业务流程与规则
- 主流程
- 异常流程

---
> **Pending Generation (待生成)**: 以下章节将在补全文档时生成。

## 4. 数据埋点设计
## 5. 测试验收标准
## 6. 词条与知识库
`

// System returns a fresh copy of the default system library: charters,
// command prompts, scripts, standards and templates.
func System() artifact.Tree {
	return artifact.Tree{
		artifact.Folder(RootID, "System Config",
			artifact.Folder("sys-specify", ".specify",
				artifact.Folder("sys-memory", "memory",
					charters(),
				),
			),
			artifact.Folder("sys-claude", ".claude",
				commands(),
			),
			artifact.Folder("sys-scripts", "scripts",
				artifact.Folder("sys-bash", "bash",
					artifact.File("sh-check", "check-prerequisites.sh", "#!/bin/bash\n\n# Check system requirements"),
					artifact.File("sh-common", "common.sh", "#!/bin/bash\n\n# Common utility functions"),
					artifact.File("sh-create", "create-new-feature.sh", "#!/bin/bash\n\n# Scaffolding script"),
					artifact.File("sh-load", "load-constitution.sh", "#!/bin/bash\n\n# Load charters into context"),
				),
			),
			standards(),
			templates(),
		),
	}
}

func charters() *artifact.Node {
	return artifact.Folder(ChartersID, "charters",
		artifact.File("ch-core", "00_constitution-core.md", "# 部门核心宪章 (Department Core)\n\n1. 用户数据安全优先: 敏感信息必须加密存储。\n2. 性能底线: 核心接口响应时间不超过 100ms。\n3. 可观测性: 所有关键路径必须有日志与埋点。"),
		artifact.File("ch-summary", "99_constitution-summary.md", "# 宪章摘要 (Summary)\n\n冲突时以子宪章为准，其次为领域主宪章，最后为部门核心宪章。"),
		artifact.Folder("ch-folder-product", "Product",
			artifact.File("ch-product", "constitution-product.md", "# 产品宪章 (Department Product)\n\n- 需求描述必须可验证，禁止使用\"快速\"、\"友好\"等模糊词汇。\n- 功能拆分为原子单元 (Atomic Units)。\n- 每个需求必须说明用户价值。"),
		),
		artifact.Folder("ch-folder-web", "Web",
			artifact.File("ch-web", "constitution-web.md", "# Web 宪章 (Domain Main)\n\n- 使用 TypeScript\n- 样式遵循 BEM 命名"),
			artifact.File("ch-web-payment", "sub-payment-rules.md", "# Web 支付子宪章 (Domain Sub)\n\n- 支付页面禁止缓存\n- 金额以分为单位传输\n- 支付结果轮询间隔不少于 3 秒"),
		),
		artifact.Folder("ch-folder-backend", "Backend",
			artifact.File("ch-backend", "constitution-backend.md", "# 后端宪章 (Domain Main)\n\n- 接口遵循 RESTful 规范\n- 单元测试覆盖率 > 80%"),
		),
		artifact.Folder("ch-folder-app", "App",
			artifact.File("ch-app", "constitution-app.md", "# App 宪章 (Domain Main)\n\n- 使用 Flutter 开发\n- 本地存储使用 Hive"),
		),
		artifact.Folder("ch-folder-pc", "PC",
			artifact.File("ch-pc", "constitution-pc.md", "# PC 宪章 (Domain Main)\n\n- 支持离线模式\n- 安装包体积受控"),
		),
		artifact.Folder("ch-folder-firmware", "Firmware",
			artifact.File("ch-firmware", "constitution-firmware.md", "# 固件宪章 (Domain Main)\n\n- 内存预算严格受控\n- OTA 必须支持断点续传"),
		),
		artifact.Folder("ch-folder-ui", "UI",
			artifact.File("ch-ui", "constitution-ui.md", "# UI 设计宪章 (Domain Main)\n\n- 遵循设计系统组件\n- 保证无障碍对比度"),
		),
	)
}

func commands() *artifact.Node {
	return artifact.Folder(CommandsID, "commands",
		artifact.File(CmdAnalyzeID, "speckit.analyze.md", "# System Prompt: Analyze\n\nAnalyze consistency across documents."),
		artifact.File(CmdAutotestID, "speckit.autotest.md", "# System Prompt: AutoTest\n\nGenerate automated test cases."),
		artifact.File(CmdChecklistID, "speckit.checklist.md", "# System Prompt: Checklist\n\nVerify constitution compliance."),
		artifact.File("cmd-clarify", "speckit.clarify.md", "# System Prompt: Clarify\n\nAsk clarifying questions to the user."),
		artifact.File("cmd-constitution", "speckit.constitution.md", "# System Prompt: Constitution\n\nManage and update charters."),
		artifact.File("cmd-implement", "speckit.implement.md", "# System Prompt: Implement\n\nExecute code generation based on tasks."),
		artifact.File("cmd-plan", "speckit.plan.md", "# System Prompt: Plan\n\nCreate initial project plan."),
		artifact.File(CmdSpecifyID, "speckit.specify.md", "# System Prompt: Specify\n\nGenerate core specification document."),
		artifact.File("cmd-status", "speckit.status.md", "# System Prompt: Status\n\nReport project progress."),
		artifact.File(CmdTasksID, "speckit.tasks.md", "# System Prompt: Tasks\n\nBreak down specs into tasks."),
		artifact.File("cmd-issues", "speckit.taskstoissues.md", "# System Prompt: TasksToIssues\n\nConvert tasks to Git issues."),
		artifact.File(CmdTechID, "speckit.techdetail.md", "# System Prompt: TechDetail\n\nGenerate technical design documents."),
	)
}

func standards() *artifact.Node {
	return artifact.Folder(StandardsID, "standards",
		artifact.File(StdSpecID, "requirement-writing-standards.md", "# 需求编写规范 (Requirement Writing Standard)\n\n1. 清晰性: 避免\"大概\"、\"可能\"等模糊描述，给出可量化指标。\n2. 原子性: 一条需求只描述一个功能点。\n3. 用户视角: 使用\"作为[角色]，我希望[功能]，以便[价值]\"的格式。\n4. 完整性: 覆盖正常流程、异常流程与边界条件。"),
		artifact.File(StdKBID, "knowledge-base-writing-standards.md", "# 知识库编写规范\n\n1. 词条定义简洁\n2. 每个词条给出示例"),
		artifact.File(StdMarkdownID, "markdown-format-standards.md", "# Markdown 格式规范\n\n1. 标题层级连续\n2. 表格单元格内不使用加粗"),
		artifact.File(StdTestID, "testing-acceptance-standards.md", "# 测试验收规范\n\n1. 每条功能至少一条验收用例\n2. 用例包含前置条件、步骤、预期结果"),
		artifact.File(StdTestTableID, "test-acceptance-table-standards.md", "# 验收表格规范\n\n## 1. 表格字段\n- 编号、场景、步骤、预期结果、优先级\n- 优先级取值: P0 (Blocker), P1 (Critical), P2 (Major)"),
	)
}

func templates() *artifact.Node {
	names := []string{"app", "backend", "firmware", "integration", "overview", "pc", "web"}
	tech := make([]*artifact.Node, 0, len(names))
	auto := make([]*artifact.Node, 0, len(names))
	for _, n := range names {
		tech = append(tech, artifact.File("tpl-tech-"+n, n+"-template.md", "# "+n+" 技术方案模板\n\n## 1. 架构设计\n## 2. 接口设计\n## 3. 数据设计\n## 4. 风险与约束"))
		auto = append(auto, artifact.File("tpl-test-"+n, n+"-template.md", "# "+n+" 自动化测试计划模板\n\n## 1. 测试范围\n## 2. 测试用例\n## 3. 执行环境"))
	}
	return artifact.Folder(TemplatesID, "templates",
		artifact.File("tpl-spec", "spec.md", SpecTemplate),
		artifact.Folder(TechTemplatesID, "techdetail", tech...),
		artifact.Folder(AutotestTemplatesID, "autotest", auto...),
	)
}
