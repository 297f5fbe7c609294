/*
Package engine schedules graphs of audio and event processors in real
time.

Concept

A graph declares structure: modules are hierarchical containers, nodes
are leaf processors, and ports connect them. Bindings pass signals
across a module boundary between a parent and a child port of the same
direction; connections move signals between sibling outputs and inputs.
The graph is resolved into a topology, the dependency order in which
nodes must render.

Two threads share the work:

    Controller - control thread; owns processors, parameters, buffers;
                 compiles render plans
    Renderer   - audio thread; runs the current plan once per block

The only synchronization between them is a pair of single-producer
single-consumer ring buffers. A compiled plan moves forward through one
of them whole; the plan it replaces travels back through the other so
that its disposal never happens on the audio thread. Parameter changes
bypass the channels entirely through shared lock-free cells.

Usage

Build the graph through the engine facade, compile it and split the
halves:

    e := engine.New()
    root := e.RootModule()
    osc, err := root.CreateProcessor("osc", oscillator)
    out, err := root.CreateAudioOutput(graph.NewAudioDescriptor("main", 2))
    oscOut, err := osc.AudioOutput("out")
    err = e.ConnectAudio(oscOut.Bind(out))
    err = e.SendRenderPlan()

    controller, renderer := e.Split()

The renderer side is handed to an audio driver which calls
renderer.Render(numSamples) from its callback; the controller side
stays with the host, which calls controller.ProcessMessages()
periodically to release retired plans.
*/
package engine
