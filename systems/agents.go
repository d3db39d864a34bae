package systems

// Agent is one particle: a position on the unit torus and a heading in radians.
// The layout mirrors the GPU buffer element (three packed floats).
type Agent struct {
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Heading float32 `json:"heading"`
}

// AgentStore is the dense, index-addressed agent buffer. Invocation i of an
// agent kernel owns element i and nothing else.
type AgentStore struct {
	Agents []Agent
}

// NewAgentStore allocates exactly n zeroed agents.
func NewAgentStore(n int) *AgentStore {
	return &AgentStore{Agents: make([]Agent, n)}
}

// Len returns the number of agents.
func (s *AgentStore) Len() int {
	return len(s.Agents)
}

// InitParticle places agent i from the seeded hash stream: uniformly inside a
// disc of StartRadius around the field centre, with a uniform heading.
func InitParticle(s *AgentStore, i int, p *Params) {
	if i < 0 || i >= len(s.Agents) {
		return
	}
	idx := uint32(i)

	r := p.StartRadius * sqrtf(Random01(idx, streamRadius, p.Seed))
	theta := twoPi * Random01(idx, streamAngle, p.Seed)
	sin, cos := sincos(theta)

	heading := twoPi * Random01(idx, streamHeading, p.Seed)
	if heading >= twoPi {
		heading = 0
	}

	s.Agents[i] = Agent{
		X:       wrap01(0.5 + r*cos),
		Y:       wrap01(0.5 + r*sin),
		Heading: heading,
	}
}

// SeedAgents runs InitParticle over the whole store sequentially.
func SeedAgents(s *AgentStore, p *Params) {
	for i := range s.Agents {
		InitParticle(s, i, p)
	}
}
