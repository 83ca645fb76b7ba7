package bubbles

// BuiltinMessages are the curated phrases shipped with the wall.
var BuiltinMessages = []string{
	"星光不问赶路人",
	"一研为定，顶峰相见",
	"乾坤未定，你我皆是黑马",
	"坚持到底，就是胜利",
	"所有的努力都算数",
	"上岸！上岸！",
	"愿你的努力配得上你的梦想",
	"保持平常心，你最棒",
	"笔锋所至，心之所向",
	"未来可期，加油！",
	"相信自己，你可以",
	"最后的冲刺，稳住！",
	"考神附体，下笔有神",
	"关关难过关关过",
	"去更高的地方见更好的自己",
	"须知少时凌云志",
	"曾许人间第一流",
	"长风破浪会有时",
	"直挂云帆济沧海",
	"彼方尚有荣光在",
	"披星戴月，终得圆满",
	"你的名字，那么好听，一定要出现在录取通知书上",
}

// PersonalizedTemplates use {name} and {school} placeholders.
var PersonalizedTemplates = []string{
	"祝{name}一战成硕！",
	"{name}，{school}见！",
	"{name}，岸上见！",
	"恭喜{name}被{school}录取！",
	"{name}，你的{school}梦一定实现！",
	"{name}，金榜题名！",
	"{name}，你可以的！",
	"{school}的大门为你打开，{name}加油！",
}

// Palette lists the bubble colour classes a renderer understands.
var Palette = []string{
	"bg-red-50 text-red-800 border-red-100",
	"bg-orange-50 text-orange-800 border-orange-100",
	"bg-amber-50 text-amber-800 border-amber-100",
	"bg-yellow-50 text-yellow-800 border-yellow-100",
	"bg-lime-50 text-lime-800 border-lime-100",
	"bg-rose-50 text-rose-800 border-rose-100",
	"bg-blue-50 text-blue-800 border-blue-100",
	"bg-indigo-50 text-indigo-800 border-indigo-100",
	"bg-violet-50 text-violet-800 border-violet-100",
	"bg-emerald-50 text-emerald-800 border-emerald-100",
	"bg-fuchsia-50 text-fuchsia-800 border-fuchsia-100",
}

// Pools is a snapshot of every content source the scheduler mixes.
type Pools struct {
	Builtin   []string
	Community []string
	Templates []string
}

// DefaultPools returns the shipped pools with the given community texts.
func DefaultPools(community []string) Pools {
	return Pools{
		Builtin:   BuiltinMessages,
		Community: community,
		Templates: PersonalizedTemplates,
	}
}
