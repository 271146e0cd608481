package prompts

// Pool names a category of writing prompts.
type Pool string

const (
	Default    Pool = "default"
	Stress     Pool = "stress"
	Positive   Pool = "positive"
	Creative   Pool = "creative"
	Reflective Pool = "reflective"
)

// Pools holds the reflective questions for each category.
var Pools = map[Pool][]string{
	Default: {
		"What's one thing that made you smile today?",
		"Describe a moment from today that you want to remember.",
		"What challenged you today, and how did you respond?",
		"What are you grateful for right now?",
		"How are you feeling in this moment, and why?",
		"What did you learn about yourself today?",
		"What surprised you today?",
		"If today had a color, what would it be and why?",
	},
	Stress: {
		"What helped you find calm during a stressful moment today?",
		"What's one small thing you could do to ease your stress tomorrow?",
		"How did you take care of yourself during difficult moments today?",
		"What boundary could you set to protect your peace?",
		"What would you tell a friend feeling the way you do?",
	},
	Positive: {
		"What positive energy are you carrying forward from today?",
		"How can you create more moments like the good ones you experienced?",
		"What strength did you discover in yourself today?",
		"What's something you're proud of right now?",
		"How did you make someone else's day better?",
	},
	Creative: {
		"What ideas have been flowing through your mind lately?",
		"What inspires you right now?",
		"How could you nurture your creative side more?",
		"What would you create if you had unlimited time and resources?",
		"What creative project is calling to you?",
	},
	Reflective: {
		"What pattern have you noticed in your life lately?",
		"What's one thing you'd like to change?",
		"What are you becoming?",
		"What wisdom would your future self share with you?",
		"What does success look like for you right now?",
	},
}
