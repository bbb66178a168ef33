package ai

import "fmt"

// Personas (system prompts)
const (
	PersonaAssistant = "You are a helpful assistant"

	PersonaAccountPlanner = "你是一名专业的账号人设规划师，负责分析账号定位、竞品差异化和受众特征。"

	// industryPersonaTemplate takes the industry and its focus
	industryPersonaTemplate = "你是一名%s领域账号规划师，需特别关注%s。"

	PersonaBrandAnalyst    = "商业生态解码器与品牌基因工程师，提供战略诊断、营销预判、品牌诊断、营销规划、竞争策略等严谨且精准的品牌增长建议。"
	PersonaProductAnalyst  = "商业价值分析师与市场需求解读专家，提供产品定位、市场适配度、竞争优势、用户需求等详细精准的产品战略分析。"
	PersonaBrandMarketer   = "战略品牌增长顾问与传播策划师，提供品牌定位、用户心智分析、品牌战略规划及高效传播策略。"
	PersonaChannelMarketer = "渠道网络构建师与营销效率优化师，提供渠道策略、市场覆盖规划、伙伴生态建设及渠道运营优化策略。"
	PersonaOperator        = "整体品牌营销操盘手，统筹战略规划、营销执行、资源整合及阶段性目标达成，提供切实可行、严谨且专业的商业落地方案。"
)

// GenericFocus is used for industries outside IndustryFocus
const GenericFocus = "通用策略"

// Industries lists the supported industries in display order
var Industries = []string{"美妆", "教育", "3C数码", "母婴", "美食"}

// IndustryFocus maps an industry to what its planner persona emphasises
var IndustryFocus = map[string]string{
	"美妆":   "强调成分分析和使用场景",
	"教育":   "集中学习效果视觉化",
	"3C数码": "关注参数对比和实测体验",
	"母婴":   "注重安全性和用户体验",
	"美食":   "突出口感和地域文化",
}

// ValidIndustry reports whether industry has a dedicated focus
func ValidIndustry(industry string) bool {
	_, ok := IndustryFocus[industry]
	return ok
}

// IndustryPersona builds the planner persona for an industry.
// An empty industry yields the generic account planner.
func IndustryPersona(industry string) string {
	if industry == "" {
		return PersonaAccountPlanner
	}
	focus, ok := IndustryFocus[industry]
	if !ok {
		focus = GenericFocus
	}
	return fmt.Sprintf(industryPersonaTemplate, industry, focus)
}

// Task is one catalog entry: the instruction prefixed to the user text and
// the placeholder shown when the call fails. An empty instruction sends the
// user text verbatim.
type Task struct {
	Name        string
	Instruction string
	Fallback    string
	JSON        bool
}

// Task names
const (
	TaskPersonaAnalysis = "persona_analysis"
	TaskHotTopics       = "hot_topics"
	TaskOptimizeCopy    = "optimize_copy"
	TaskViralTitle      = "viral_title"
	TaskHashtags        = "hashtags"
	TaskPostingTime     = "posting_time"
	TaskBrandAnalysis   = "brand_analysis"
	TaskProductAnalysis = "product_analysis"
	TaskNeedsAnalysis   = "needs_analysis"
	TaskChannelAnalysis = "channel_analysis"
	TaskStrategy        = "strategy"
)

const personaAnalysisInstruction = `账号人设分析。请只返回一个 JSON 对象，字段如下：
{"persona": "<人设定位建议>", "differentiation": ["<差异点>"], "risk": "<风险提示>"}`

// Tasks is the single task table every flow draws from
var Tasks = map[string]Task{
	TaskPersonaAnalysis: {
		Name:        TaskPersonaAnalysis,
		Instruction: personaAnalysisInstruction,
		Fallback:    "分析失败",
		JSON:        true,
	},
	TaskHotTopics: {
		Name:        TaskHotTopics,
		Instruction: "根据以下账号人设分析报告，生成20个适合该账号的行业爆款选题，每行一个，格式为“序号. 选题”",
		Fallback:    "未生成选题",
	},
	TaskOptimizeCopy: {
		Name:        TaskOptimizeCopy,
		Instruction: "请基于抖音短视频爆款逻辑优化该文案，并符合黄金3秒原则，按照爆款公式进行优化",
		Fallback:    "无优化建议",
	},
	TaskViralTitle: {
		Name:        TaskViralTitle,
		Instruction: "请生成符合短视频爆款逻辑的爆款标题",
		Fallback:    "未生成标题",
	},
	TaskHashtags: {
		Name:        TaskHashtags,
		Instruction: "请提供6个与该内容相关的抖音爆款话题",
		Fallback:    "未生成话题",
	},
	TaskPostingTime: {
		Name:        TaskPostingTime,
		Instruction: "请推荐适合该内容发布时间",
		Fallback:    "未生成发布时间",
	},
	TaskBrandAnalysis: {
		Name:        TaskBrandAnalysis,
		Instruction: "",
		Fallback:    "品牌分析失败",
	},
	TaskProductAnalysis: {
		Name:        TaskProductAnalysis,
		Instruction: "",
		Fallback:    "产品分析失败",
	},
	TaskNeedsAnalysis: {
		Name:        TaskNeedsAnalysis,
		Instruction: "",
		Fallback:    "品牌需求分析失败",
	},
	TaskChannelAnalysis: {
		Name:        TaskChannelAnalysis,
		Instruction: "",
		Fallback:    "推广渠道分析失败",
	},
	TaskStrategy: {
		Name:        TaskStrategy,
		Instruction: "",
		Fallback:    "营销方案生成失败",
	},
}

// Fallback returns the placeholder for a task name
func Fallback(taskName string) string {
	if t, ok := Tasks[taskName]; ok {
		return t.Fallback
	}
	return "生成失败"
}

// StrategyPromptTemplate joins the four stage analyses into the final prompt
const StrategyPromptTemplate = `品牌分析:
%s

产品分析:
%s

品牌需求分析:
%s

推广渠道分析:
%s

基于以上信息，请提供一个严谨且专业的营销方案，明确各个阶段的具体目标与实施措施，确保方案切实可行，能够实际落地执行，避免使用夸张修饰词语。`

// TrendsContextTemplate appends recent industry headlines to a hot-topic request
const TrendsContextTemplate = "%s\n\n近期行业热点（仅供参考）：\n%s"
