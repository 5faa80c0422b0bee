// Package cortex provides a neuroevolution platform for Go.
//
// Cortex evolves populations of artificial neural networks to optimise a
// user-supplied fitness function. Both the topology of a network (layers,
// nodes, links) and its parameters (link weights, membrane time constants,
// transfer function choices) are under evolutionary control. Two network
// families are supported: classical (layered feed-forward / recurrent
// networks with smooth transfer functions) and spiking (event-driven leaky
// integrate-and-fire networks with time-coded spikes and STDP).
//
// Basic usage:
//
//	// Load configuration
//	conf, err := cortex.LoadConf("config.json")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a task with your evaluator
//	task, err := cortex.NewTask(conf, func(net *cortex.Network) {
//		net.Evaluate(sample)
//		net.SetFitness(score(net.Output()))
//	})
//	if err != nil {
//		log.Fatalf("Error creating task: %v", err)
//	}
//
//	// Run the configured number of runs and print the history
//	task.Execute()
package cortex
