package flightconfig

// InstructionManual is the flight config reference shown by
// read_starlog_flight_config_instruction_manual.
const InstructionManual = `📖 STARLOG FLIGHT CONFIG INSTRUCTION MANUAL

WHAT IS A FLIGHT CONFIG?
A flight config is a named, reusable workflow template. Its work_loop_subchain
points at a PayloadDiscovery JSON document: an ordered sequence of titled
instruction steps with a designated entry point.

SCHEMA
  name                 must end with "_flight_config" (no spaces or slashes)
  category             groups configs in fly (default: general)
  config_data:
    description        what the workflow accomplishes
    work_loop_subchain path to the PayloadDiscovery JSON (required)

PAYLOADDISCOVERY DOCUMENT
  {
    "domain": "your_domain",
    "version": "1.0.0",
    "description": "...",
    "directories": {},
    "root_files": [
      {"sequence_number": 1, "filename": "01_setup.md", "title": "Setup",
       "content": "...", "piece_type": "instruction", "dependencies": []}
    ],
    "entry_point": "01_setup.md"
  }
  Sequence numbers are dense and follow declaration order. Dependencies may
  only name earlier steps. entry_point must name one of the steps.

TOOLS
  fly(path, page?, category?, this_project_only?)   browse configs
  add_flight_config(path, name, config_data, category?)
  update_flight_config(path, name, config_data)
  delete_flight_config(path, name)
  populate_default_flight_configs()                 seed built-in configs

KNOWLEDGE PRIMITIVES
  knowledge_update registers each capture as a primitive config named
  "{title}_{pd_id}_primitive_flight_config". session_review lists the
  session's primitives and drafts a composite config that sequences them.

EXAMPLE
  add_flight_config(
    path="/work/api",
    name="flaky_test_triage_flight_config",
    config_data={"description": "Reproduce, bisect, fix",
                 "work_loop_subchain": "/data/pd/flaky_tests_pd.json"},
    category="debugging")
`
