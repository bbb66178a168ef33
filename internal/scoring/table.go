package scoring

// ViralPotential is the aggregate category of the content diagnosis
const ViralPotential = "爆款潜质"

// DiagnosisTable is the content diagnosis score table
var DiagnosisTable = Table{
	{
		Name:     "文案能力",
		Keywords: []string{"文案", "营销", "推广"},
		Weight:   1.0,
		Guidance: "加强文案吸引力，结合故事化表达或痛点共鸣，提高用户关注度。",
	},
	{
		Name:     "工具掌握度",
		Keywords: []string{"DeepSeek", "AI工具", "数据分析"},
		Weight:   0.9,
		Guidance: "提升AI工具的熟练度，合理使用数据分析工具优化内容策略。",
	},
	{
		Name:     "路径可行性",
		Keywords: []string{"行业", "竞争", "市场"},
		Weight:   0.8,
		Guidance: "关注市场趋势，分析行业竞争格局，选择最优路径提升变现效率。",
	},
	{
		Name:     "客单价定位",
		Keywords: []string{"定价", "消费", "承受力"},
		Weight:   0.7,
		Guidance: "优化定价策略，确保符合目标用户消费能力，同时提高产品价值感。",
	},
	{
		Name:     "政策合规性",
		Keywords: []string{"平台规则", "违禁词", "政策"},
		Weight:   0.6,
		Guidance: "确保内容符合平台合规要求，避免敏感词汇，减少违规风险。",
	},
}
